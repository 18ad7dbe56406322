package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	einoOpenAI "github.com/meguminnnnnnnnn/go-openai"
	arkModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"

	"chatrelay-backend/internal/config"
)

// einoChatModel 把 eino ChatModel（豆包/通义）适配为 ChatModel。
// eino 只返回一段文本，对应一个 text 片段。
type einoChatModel struct {
	provider  string
	chatModel einoModel.BaseChatModel
}

func newArkChatModel(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (*einoChatModel, error) {
	// ark 默认重试 2 次，这里关掉
	retryTimes := 0
	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		RetryTimes: &retryTimes,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create ark model: %w", err)
	}
	return &einoChatModel{provider: "ark", chatModel: chatModel}, nil
}

func newQwenChatModel(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (*einoChatModel, error) {
	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Timeout:    cfg.Timeout,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}
	return &einoChatModel{provider: "qwen", chatModel: chatModel}, nil
}

func (m *einoChatModel) CreateMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	out, err := m.chatModel.Generate(ctx, convertToSchema(req.Messages), einoModel.WithMaxTokens(req.MaxTokens))
	if err != nil {
		return nil, translateEinoError(err)
	}
	return fromSchemaMessage(req.Model, out), nil
}

func (m *einoChatModel) Close() error {
	return nil
}

func convertToSchema(messages []Message) []*schema.Message {
	result := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleAssistant {
			result = append(result, schema.AssistantMessage(msg.Content, nil))
			continue
		}
		result = append(result, schema.UserMessage(msg.Content))
	}
	return result
}

func fromSchemaMessage(modelName string, msg *schema.Message) *MessageResponse {
	out := &MessageResponse{
		Model:   modelName,
		Role:    RoleAssistant,
		Content: []ContentSegment{},
	}
	if msg == nil {
		return out
	}
	if msg.Content != "" {
		out.Content = append(out.Content, ContentSegment{Type: ContentTypeText, Text: msg.Content})
	}
	if meta := msg.ResponseMeta; meta != nil {
		out.StopReason = meta.FinishReason
		if meta.Usage != nil {
			out.Usage = Usage{
				InputTokens:  meta.Usage.PromptTokens,
				OutputTokens: meta.Usage.CompletionTokens,
			}
		}
	}
	return out
}

// translateEinoError ark 和 qwen 的 SDK 错误都被 eino 用 %w 包过一层
func translateEinoError(err error) error {
	// ark 的网络错误也是 RequestError（状态码 500），要先判断
	if e := transportError(err); e != nil {
		return e
	}

	var arkAPIErr *arkModel.APIError
	if errors.As(err, &arkAPIErr) {
		return statusOrAPIError(arkAPIErr.HTTPStatusCode, arkAPIErr.Message, arkAPIErr.Error(), err)
	}
	var arkReqErr *arkModel.RequestError
	if errors.As(err, &arkReqErr) {
		return statusOrAPIError(arkReqErr.HTTPStatusCode, arkReqErr.Error(), "", err)
	}

	var qwenAPIErr *einoOpenAI.APIError
	if errors.As(err, &qwenAPIErr) {
		return statusOrAPIError(qwenAPIErr.HTTPStatusCode, qwenAPIErr.Message, qwenAPIErr.Type, err)
	}
	var qwenReqErr *einoOpenAI.RequestError
	if errors.As(err, &qwenReqErr) {
		return statusOrAPIError(qwenReqErr.HTTPStatusCode, qwenReqErr.Error(), string(qwenReqErr.Body), err)
	}

	return NewAPIError(err.Error(), err)
}
