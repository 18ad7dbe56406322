package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/model"
)

// ChatService 把一段用户输入转发给远端模型
type ChatService struct {
	chatModel model.ChatModel
	modelName string
	maxTokens int
	log       logrus.FieldLogger
}

func NewChatService(chatModel model.ChatModel, cfg config.LLMConfig, log logrus.FieldLogger) *ChatService {
	return &ChatService{
		chatModel: chatModel,
		modelName: cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log,
	}
}

// Chat 发送单条 user 消息。不重试，不设额外超时；
// 失败时返回 provider 给出的 *model.Error。
func (s *ChatService) Chat(ctx context.Context, userInput string) (*model.MessageResponse, error) {
	req := model.NewUserMessageRequest(s.modelName, s.maxTokens, userInput)

	s.log.WithFields(logrus.Fields{
		"model":      req.Model,
		"max_tokens": req.MaxTokens,
	}).Debug("creating message")

	resp, err := s.chatModel.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"stop_reason":   resp.StopReason,
		"segments":      len(resp.Content),
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}).Debug("message created")
	return resp, nil
}
