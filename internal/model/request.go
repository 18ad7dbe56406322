package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest /chat 的 JSON 请求体。字段缺失时为 nil。
type ChatRequest struct {
	UserInput *string `json:"user_input" form:"user_input"`
}

// Message 发给远端模型的一条消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageRequest 一次 create message 调用的参数
type MessageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

// NewUserMessageRequest 构造只有一条 user 消息的请求
func NewUserMessageRequest(modelName string, maxTokens int, text string) *MessageRequest {
	return &MessageRequest{
		Model:     modelName,
		MaxTokens: maxTokens,
		Messages: []Message{
			{Role: RoleUser, Content: text},
		},
	}
}
