package utils

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewHTTPClient 创建调用 LLM 的 HTTP 客户端。timeout 为 0 表示不超时；
// debug 为 true 时记录每个请求的方法、地址、状态码和耗时。
func NewHTTPClient(timeout time.Duration, log logrus.FieldLogger, debug bool) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if debug && log != nil {
		transport = NewDebugTransport(transport, log)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DebugTransport 记录请求概要，敏感请求头打码
type DebugTransport struct {
	base http.RoundTripper
	log  logrus.FieldLogger
}

func NewDebugTransport(base http.RoundTripper, log logrus.FieldLogger) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DebugTransport{base: base, log: log}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	entry := t.log.WithFields(logrus.Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": redactHeaders(req.Header),
	})

	resp, err := t.base.RoundTrip(req)
	entry = entry.WithField("elapsed", time.Since(start))
	if err != nil {
		entry.WithError(err).Debug("upstream request failed")
		return resp, err
	}
	entry.WithField("status", resp.StatusCode).Debug("upstream request completed")
	return resp, nil
}

var sensitiveHeaders = []string{
	"authorization",
	"x-api-key",
	"x-goog-api-key",
	"x-auth-token",
	"cookie",
}

func isSensitiveHeader(name string) bool {
	for _, sensitive := range sensitiveHeaders {
		if strings.EqualFold(name, sensitive) {
			return true
		}
	}
	return false
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isSensitiveHeader(name) {
			out[name] = "[REDACTED]"
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}
