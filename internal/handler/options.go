package handler

import (
	"net/http"

	"chatrelay-backend/internal/config"
)

// Options 控制 /chat 的输入来源、响应形态和错误分类
type Options struct {
	// InputMode query_or_form: GET 读 query，POST 读表单；json_body: 只接受 POST JSON
	InputMode string
	// ResponseShape raw: 返回完整片段列表；first_text: 只返回第一个片段的文本
	ResponseShape string
	// ErrorClassification full: 按失败类型映射状态码；collapsed: 一律 500
	ErrorClassification string
}

func OptionsFromConfig(cfg config.ChatConfig) Options {
	return Options{
		InputMode:           cfg.InputMode,
		ResponseShape:       cfg.ResponseShape,
		ErrorClassification: cfg.ErrorClassification,
	}
}

// Methods /chat 接受的 HTTP 方法
func (o Options) Methods() []string {
	if o.InputMode == config.InputModeJSONBody {
		return []string{http.MethodPost}
	}
	return []string{http.MethodGet, http.MethodPost}
}
