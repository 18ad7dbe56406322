package router_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/handler"
	"chatrelay-backend/internal/middleware"
	"chatrelay-backend/internal/model"
	"chatrelay-backend/internal/router"
	"chatrelay-backend/internal/service"
)

type failingModel struct{}

func (failingModel) CreateMessage(ctx context.Context, req *model.MessageRequest) (*model.MessageResponse, error) {
	return nil, errors.New("remote is down")
}

func (failingModel) Close() error { return nil }

func newConfig(variant string, debug bool) *config.Config {
	enabled := variant == config.VariantJSON
	cfg := &config.Config{
		Server: config.ServerConfig{Debug: debug},
		LLM:    config.LLMConfig{Model: "claude-3-sonnet-20240229", MaxTokens: 1024},
		Chat:   config.ChatConfig{Variant: variant},
		CORS: config.CORSConfig{
			Enabled:        &enabled,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type"},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		},
	}
	if variant == config.VariantJSON {
		cfg.Chat.InputMode = config.InputModeJSONBody
		cfg.Chat.ResponseShape = config.ResponseShapeFirstText
		cfg.Chat.ErrorClassification = config.ErrorClassificationCollapsed
	} else {
		cfg.Chat.InputMode = config.InputModeQueryOrForm
		cfg.Chat.ResponseShape = config.ResponseShapeRaw
		cfg.Chat.ErrorClassification = config.ErrorClassificationFull
	}
	return cfg
}

var _ = Describe("New", func() {
	var (
		hook   *test.Hook
		engine *gin.Engine
	)

	build := func(cfg *config.Config) {
		log, h := test.NewNullLogger()
		hook = h
		svc := service.NewChatService(failingModel{}, cfg.LLM, log)
		chatHandler := handler.NewChatHandler(svc, log, handler.OptionsFromConfig(cfg.Chat))

		var err error
		engine, err = router.New(cfg, chatHandler, log)
		Expect(err).NotTo(HaveOccurred())
	}

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	Context("form variant", func() {
		BeforeEach(func() {
			build(newConfig(config.VariantForm, false))
		})

		It("serves the landing page", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(HavePrefix("text/html"))
			Expect(rec.Body.String()).To(ContainSubstring(`name="user_input"`))
			Expect(rec.Body.String()).To(MatchRegexp(`const jsonInput =\s*false\s*;`))
		})

		It("serves the landing page even when the remote API is failing", func() {
			Expect(serve(httptest.NewRequest(http.MethodGet, "/chat?user_input=hi", nil)).Code).To(Equal(http.StatusInternalServerError))
			Expect(serve(httptest.NewRequest(http.MethodGet, "/", nil)).Code).To(Equal(http.StatusOK))
		})

		It("reports health", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/health", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"status":"ok"`))
		})

		It("routes GET and POST to /chat", func() {
			Expect(serve(httptest.NewRequest(http.MethodGet, "/chat", nil)).Code).To(Equal(http.StatusBadRequest))
			Expect(serve(httptest.NewRequest(http.MethodPost, "/chat", nil)).Code).To(Equal(http.StatusBadRequest))
			Expect(serve(httptest.NewRequest(http.MethodPut, "/chat", nil)).Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("does not send CORS headers", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "http://other.test")
			rec := serve(req)

			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})

		It("generates a request id and attaches it to the log entries", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/chat?user_input=hi", nil))

			id := rec.Header().Get(middleware.RequestIDHeader)
			Expect(id).NotTo(BeEmpty())

			var chatEntries int
			for _, e := range hook.AllEntries() {
				if e.Message == "Starting chat session..." {
					chatEntries++
					Expect(e.Data).To(HaveKeyWithValue(middleware.RequestIDKey, id))
				}
			}
			Expect(chatEntries).To(Equal(1))
		})

		It("keeps a client supplied request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-123")
			rec := serve(req)

			Expect(rec.Header().Get(middleware.RequestIDHeader)).To(Equal("req-123"))
		})

		It("writes an access log entry in release mode", func() {
			serve(httptest.NewRequest(http.MethodGet, "/health", nil))

			entry := hook.LastEntry()
			Expect(entry).NotTo(BeNil())
			Expect(entry.Message).To(Equal("request completed"))
			Expect(entry.Data).To(HaveKeyWithValue("path", "/health"))
			Expect(entry.Data).To(HaveKeyWithValue("status", http.StatusOK))
		})
	})

	Context("json variant", func() {
		BeforeEach(func() {
			build(newConfig(config.VariantJSON, true))
		})

		It("only routes POST to /chat", func() {
			Expect(serve(httptest.NewRequest(http.MethodGet, "/chat", nil)).Code).To(Equal(http.StatusMethodNotAllowed))
		})

		It("tells the page to submit JSON", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Body.String()).To(MatchRegexp(`const jsonInput =\s*true\s*;`))
		})

		It("answers CORS preflight requests from any origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
			req.Header.Set("Origin", "http://other.test")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})

		It("adds CORS headers to chat responses", func() {
			req := httptest.NewRequest(http.MethodPost, "/chat", nil)
			req.Header.Set("Origin", "http://other.test")
			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})
})
