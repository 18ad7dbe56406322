package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatrelay-backend/internal/config"
)

const IndexTemplate = "index.html"

// Index 渲染落地页，页面脚本按输入模式选择提交方式
func (h *ChatHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, IndexTemplate, gin.H{
		"JSONInput": h.opts.InputMode == config.InputModeJSONBody,
	})
}

// Health 健康检查
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
