package router

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/handler"
	"chatrelay-backend/internal/middleware"
	"chatrelay-backend/web"
)

// New 创建路由。gin 模式由调用方通过 gin.SetMode 设置。
func New(cfg *config.Config, chatHandler *handler.ChatHandler, log logrus.FieldLogger) (*gin.Engine, error) {
	router := gin.New()
	// 不支持的方法返回 405 而不是 404
	router.HandleMethodNotAllowed = true

	// 中间件
	router.Use(middleware.RequestID())
	if cfg.Server.Debug {
		router.Use(gin.Logger())
	} else {
		router.Use(middleware.AccessLog(log))
	}
	router.Use(gin.Recovery())

	if cfg.CORS.IsEnabled() {
		router.Use(cors.New(corsConfig(cfg.CORS)))
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/", chatHandler.Index)
	router.GET("/health", handler.Health)
	for _, method := range chatHandler.Options().Methods() {
		router.Handle(method, "/chat", chatHandler.Chat)
	}

	return router, nil
}

func corsConfig(c config.CORSConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     c.AllowedMethods,
		AllowHeaders:     c.AllowedHeaders,
		ExposeHeaders:    c.ExposedHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           time.Duration(c.MaxAge) * time.Second,
	}
	if len(c.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			corsCfg.AllowAllOrigins = true
			return corsCfg
		}
	}
	corsCfg.AllowOrigins = c.AllowedOrigins
	return corsCfg
}
