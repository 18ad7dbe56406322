package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"chatrelay-backend/internal/config"
)

type geminiChatModel struct {
	client *genai.Client
}

func newGeminiChatModel(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (*geminiChatModel, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(withGeminiAPIKey(httpClient, cfg.APIKey)))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiChatModel{client: client}, nil
}

func (m *geminiChatModel) CreateMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error) {
	gm := m.client.GenerativeModel(req.Model)
	gm.SetMaxOutputTokens(int32(req.MaxTokens))

	parts := make([]genai.Part, 0, len(req.Messages))
	for _, msg := range req.Messages {
		parts = append(parts, genai.Text(msg.Content))
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, translateGeminiError(err)
	}
	return fromGeminiResponse(req.Model, resp), nil
}

func (m *geminiChatModel) Close() error {
	return m.client.Close()
}

// withGeminiAPIKey 设置了 WithHTTPClient 后 WithAPIKey 不再作用于 REST 请求，
// key 由 transport 放进请求头
func withGeminiAPIKey(httpClient *http.Client, apiKey string) *http.Client {
	client := *httpClient
	client.Transport = &geminiKeyTransport{key: apiKey, base: httpClient.Transport}
	return &client
}

type geminiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *geminiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("x-goog-api-key", t.key)
	return base.RoundTrip(req)
}

func fromGeminiResponse(modelName string, resp *genai.GenerateContentResponse) *MessageResponse {
	out := &MessageResponse{
		Model:   modelName,
		Role:    RoleAssistant,
		Content: []ContentSegment{},
	}
	if resp == nil {
		return out
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	// 只取第一个候选
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		out.StopReason = cand.FinishReason.String()
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.Content = append(out.Content, ContentSegment{Type: ContentTypeText, Text: string(text)})
			}
		}
		break
	}
	return out
}

func translateGeminiError(err error) error {
	if e := transportError(err); e != nil {
		return e
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return statusOrAPIError(gErr.Code, gErr.Message, gErr.Body, err)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return statusOrAPIError(code, apiErr.Error(), "", err)
		}
		switch apiErr.GRPCStatus().Code() {
		case codes.Canceled:
			return NewCanceledError(err)
		case codes.ResourceExhausted:
			return NewStatusError(http.StatusTooManyRequests, apiErr.Error(), "", err)
		case codes.Unavailable:
			return NewConnectionError(err)
		default:
			return NewAPIError(apiErr.Error(), err)
		}
	}
	return classifyTransport(err)
}
