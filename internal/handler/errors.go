package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/model"
)

const (
	msgConnection   = "The server could not be reached"
	msgRateLimit    = "Too many requests, please try again later"
	msgUnexpected   = "An unexpected error occurred"
	msgMissingInput = "Missing required field: user_input"
	msgInvalidJSON  = "Invalid JSON body"
)

// inputError 请求本身不合法，远端调用前就失败
type inputError struct {
	message string
	cause   error
}

func (e *inputError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *inputError) Unwrap() error {
	return e.cause
}

// statusFor 把失败映射为 HTTP 状态码和返回给浏览器的错误信息
func statusFor(err error, classification string) (int, string) {
	if classification == config.ErrorClassificationCollapsed {
		return http.StatusInternalServerError, msgUnexpected
	}

	var inErr *inputError
	if errors.As(err, &inErr) {
		return http.StatusBadRequest, inErr.message
	}

	apiErr := model.AsError(err)
	switch apiErr.Kind {
	case model.KindConnection:
		return http.StatusServiceUnavailable, msgConnection
	case model.KindRateLimit:
		return http.StatusTooManyRequests, msgRateLimit
	case model.KindStatus:
		if apiErr.StatusCode < 100 || apiErr.StatusCode > 999 {
			return http.StatusInternalServerError, msgUnexpected
		}
		return apiErr.StatusCode, fmt.Sprintf("API error: %d", apiErr.StatusCode)
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}

// logFailure 在返回响应前记录失败详情
func logFailure(log logrus.FieldLogger, err error) {
	var inErr *inputError
	if errors.As(err, &inErr) {
		log.WithError(err).Warn("Rejected chat request")
		return
	}
	// 浏览器断开，不是远端故障
	if model.IsCanceled(err) {
		log.WithError(err).Warn("Chat request canceled by client")
		return
	}

	apiErr := model.AsError(err)
	entry := log.WithFields(logrus.Fields{
		"kind":  apiErr.Kind.String(),
		"error": err.Error(),
	})

	switch apiErr.Kind {
	case model.KindConnection:
		entry.Error(msgConnection)
		entry.Errorf("Exception details: %v", apiErr.Cause)
	case model.KindRateLimit:
		entry.WithField("status_code", apiErr.StatusCode).
			Error("A 429 status code was received; we should back off a bit.")
	case model.KindStatus:
		entry = entry.WithField("status_code", apiErr.StatusCode)
		entry.Errorf("Another non-200-range status code was received: %d", apiErr.StatusCode)
		entry.Errorf("Response details: %s", apiErr.Detail)
	case model.KindAPI:
		entry.Errorf("A general API error occurred: %s", apiErr.Message)
	default:
		entry.Errorf("An unexpected error occurred: %v", err)
	}
}
