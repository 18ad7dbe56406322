package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/middleware"
	"chatrelay-backend/internal/model"
	"chatrelay-backend/internal/service"
)

const userInputField = "user_input"

type ChatHandler struct {
	chatService *service.ChatService
	log         logrus.FieldLogger
	opts        Options
}

func NewChatHandler(chatService *service.ChatService, log logrus.FieldLogger, opts Options) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
		opts:        opts,
	}
}

func (h *ChatHandler) Options() Options {
	return h.opts
}

// Chat 读取 user_input，调用远端模型，返回 {"content": ...} 或 {"error": ...}
func (h *ChatHandler) Chat(c *gin.Context) {
	log := h.log.WithField(middleware.RequestIDKey, c.GetString(middleware.RequestIDKey))

	userInput, err := h.userInput(c)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	log.Info("Starting chat session...")

	resp, err := h.chatService.Chat(c.Request.Context(), userInput)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	log.Info("Chat response received")
	c.JSON(http.StatusOK, model.ContentResponse{Content: h.shape(resp)})
}

func (h *ChatHandler) userInput(c *gin.Context) (string, error) {
	if h.opts.InputMode == config.InputModeJSONBody {
		var req model.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", &inputError{message: msgInvalidJSON, cause: err}
		}
		// 字段缺失按空串处理
		if req.UserInput == nil {
			return "", nil
		}
		return *req.UserInput, nil
	}

	var (
		value string
		ok    bool
	)
	if c.Request.Method == http.MethodGet {
		value, ok = c.GetQuery(userInputField)
	} else {
		value, ok = c.GetPostForm(userInputField)
	}
	if !ok {
		return "", &inputError{message: msgMissingInput}
	}
	return value, nil
}

func (h *ChatHandler) shape(resp *model.MessageResponse) interface{} {
	if h.opts.ResponseShape == config.ResponseShapeFirstText {
		return resp.FirstText()
	}
	if resp.Content == nil {
		return []model.ContentSegment{}
	}
	return resp.Content
}

func (h *ChatHandler) fail(c *gin.Context, log logrus.FieldLogger, err error) {
	logFailure(log, err)
	status, message := statusFor(err, h.opts.ErrorClassification)
	c.JSON(status, model.ErrorResponse{Error: message})
}
