package model

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"chatrelay-backend/internal/config"
)

type openaiChatModel struct {
	client *openai.Client
}

func newOpenAIChatModel(cfg config.LLMConfig, httpClient *http.Client) *openaiChatModel {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &openaiChatModel{
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (m *openaiChatModel) CreateMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages:  m.convertMessages(req.Messages),
	})
	if err != nil {
		return nil, translateOpenAIError(err)
	}

	out := &MessageResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Role:    RoleAssistant,
		Content: []ContentSegment{},
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	// 只取第一个 choice
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		out.StopReason = string(choice.FinishReason)
		out.Content = append(out.Content, ContentSegment{Type: ContentTypeText, Text: choice.Message.Content})
	}
	return out, nil
}

func (m *openaiChatModel) Close() error {
	return nil
}

// 消息格式转换
func (m *openaiChatModel) convertMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return result
}

func translateOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return statusOrAPIError(apiErr.HTTPStatusCode, apiErr.Message, apiErr.Type, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusOrAPIError(reqErr.HTTPStatusCode, reqErr.Error(), string(reqErr.Body), err)
	}
	if apiErr != nil {
		return NewAPIError(apiErr.Message, err)
	}
	return classifyTransport(err)
}
