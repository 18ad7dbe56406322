package model

import (
	"context"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"chatrelay-backend/internal/config"
)

type anthropicChatModel struct {
	client anthropic.Client
}

func newAnthropicChatModel(cfg config.LLMConfig, httpClient *http.Client) *anthropicChatModel {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// 不做重试，失败直接返回给调用方
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicChatModel{
		client: anthropic.NewClient(opts...),
	}
}

func (m *anthropicChatModel) CreateMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	resp, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  m.convertMessages(req.Messages),
	})
	if err != nil {
		return nil, translateAnthropicError(err)
	}

	out := &MessageResponse{
		ID:         resp.ID,
		Model:      string(resp.Model),
		Role:       string(resp.Role),
		StopReason: string(resp.StopReason),
		Content:    make([]ContentSegment, 0, len(resp.Content)),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
	for _, block := range resp.Content {
		out.Content = append(out.Content, ContentSegment{Type: block.Type, Text: block.Text})
	}
	return out, nil
}

func (m *anthropicChatModel) Close() error {
	return nil
}

func (m *anthropicChatModel) convertMessages(messages []Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(block))
			continue
		}
		result = append(result, anthropic.NewUserMessage(block))
	}
	return result
}

func translateAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		// 优先记录远端返回的原始错误体
		detail := apiErr.RawJSON()
		if detail == "" && apiErr.Response != nil {
			detail = apiErr.Response.Status
		}
		return statusOrAPIError(apiErr.StatusCode, apiErr.Error(), detail, err)
	}
	return classifyTransport(err)
}
