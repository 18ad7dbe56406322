package model

const ContentTypeText = "text"

// ContentSegment 远端响应中的一个内容片段
type ContentSegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessageResponse 各 provider 统一后的响应
type MessageResponse struct {
	ID         string           `json:"id,omitempty"`
	Model      string           `json:"model,omitempty"`
	Role       string           `json:"role,omitempty"`
	StopReason string           `json:"stop_reason,omitempty"`
	Content    []ContentSegment `json:"content"`
	Usage      Usage            `json:"usage"`
}

// FirstText 第一个片段的文本，没有片段时返回空串
func (r *MessageResponse) FirstText() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// ContentResponse /chat 成功时的响应体，Content 为原始片段列表或提取出的文本
type ContentResponse struct {
	Content interface{} `json:"content"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
