package model

import (
	"context"
	"fmt"
	"net/http"

	"chatrelay-backend/internal/config"
)

// ChatModel 远端 LLM 客户端。实现需要并发安全；
// 失败时返回 *Error。
type ChatModel interface {
	CreateMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error)
	Close() error
}

// NewChatModel 按 provider 创建客户端
func NewChatModel(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (ChatModel, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAnthropicChatModel(cfg, httpClient), nil
	case "openai":
		return newOpenAIChatModel(cfg, httpClient), nil
	case "ark":
		return newArkChatModel(ctx, cfg, httpClient)
	case "qwen":
		return newQwenChatModel(ctx, cfg, httpClient)
	case "gemini":
		return newGeminiChatModel(ctx, cfg, httpClient)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
}
