package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind 远端调用失败的分类
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnection 无法连到远端
	KindConnection
	// KindRateLimit 远端返回 429
	KindRateLimit
	// KindStatus 远端返回了其它非 2xx 状态码
	KindStatus
	// KindAPI 其它已识别的远端错误
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindRateLimit:
		return "rate_limit"
	case KindStatus:
		return "status"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Error provider 适配层返回的统一错误
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	// Detail 远端响应内容，仅用于日志
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Cause != nil && e.Message == "":
		return fmt.Sprintf("%s error: %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewConnectionError(cause error) *Error {
	return &Error{Kind: KindConnection, Message: "connection error", Cause: cause}
}

// NewStatusError 429 归为限流，其余为状态码错误
func NewStatusError(statusCode int, message, detail string, cause error) *Error {
	kind := KindStatus
	if statusCode == http.StatusTooManyRequests {
		kind = KindRateLimit
	}
	return &Error{Kind: kind, StatusCode: statusCode, Message: message, Detail: detail, Cause: cause}
}

func NewAPIError(message string, cause error) *Error {
	return &Error{Kind: KindAPI, Message: message, Cause: cause}
}

// AsError 取出错误链上的 *Error，没有时返回 KindUnknown
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindUnknown, Message: err.Error(), Cause: err}
}

// NewCanceledError 调用方取消了请求（通常是浏览器断开），不属于远端故障
func NewCanceledError(cause error) *Error {
	return &Error{Kind: KindUnknown, Message: "request canceled", Cause: cause}
}

// IsCanceled 判断失败是否因请求被取消
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// transportError 识别取消、超时和网络错误，其它错误返回 nil
func transportError(err error) *Error {
	if IsCanceled(err) {
		return NewCanceledError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return NewConnectionError(err)
	}
	return nil
}

// classifyTransport 把 SDK 没有识别的错误归为连接错误或通用 API 错误
func classifyTransport(err error) *Error {
	if e := transportError(err); e != nil {
		return e
	}
	return NewAPIError(err.Error(), err)
}

// statusOrAPIError SDK 错误带的状态码不是非 2xx 时按通用 API 错误处理
func statusOrAPIError(statusCode int, message, detail string, cause error) *Error {
	if statusCode < http.StatusMultipleChoices {
		return NewAPIError(message, cause)
	}
	return NewStatusError(statusCode, message, detail, cause)
}
