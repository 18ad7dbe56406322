package model_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatrelay-backend/internal/config"
	"chatrelay-backend/internal/model"
)

// fakeUpstream 记录请求次数和最后一次请求体，并返回预设响应
type fakeUpstream struct {
	server     *httptest.Server
	status     int
	body       string
	hits       int
	lastPath   string
	lastHeader http.Header
	lastBody   map[string]interface{}
}

func newFakeUpstream() *fakeUpstream {
	f := &fakeUpstream{status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer GinkgoRecover()
		f.hits++
		f.lastPath = r.URL.Path
		f.lastHeader = r.Header.Clone()
		raw, err := io.ReadAll(r.Body)
		Expect(err).NotTo(HaveOccurred())
		f.lastBody = map[string]interface{}{}
		Expect(json.Unmarshal(raw, &f.lastBody)).To(Succeed())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	return f
}

func createMessage(provider, baseURL string) (*model.MessageResponse, error) {
	chatModel, err := model.NewChatModel(context.Background(), config.LLMConfig{
		Provider: provider,
		APIKey:   "test-key",
		BaseURL:  baseURL,
		Model:    "test-model",
	}, &http.Client{})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(chatModel.Close)

	return chatModel.CreateMessage(context.Background(), model.NewUserMessageRequest("test-model", 1024, "hello"))
}

var _ = Describe("anthropic adapter", func() {
	var upstream *fakeUpstream

	BeforeEach(func() {
		upstream = newFakeUpstream()
		DeferCleanup(upstream.server.Close)
	})

	It("sends one user message and returns every content segment", func() {
		upstream.body = `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": [{"type": "text", "text": "hi there"}, {"type": "text", "text": "again"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 2}
		}`

		resp, err := createMessage("anthropic", upstream.server.URL)
		Expect(err).NotTo(HaveOccurred())

		Expect(upstream.lastPath).To(HaveSuffix("/v1/messages"))
		Expect(upstream.lastBody).To(HaveKeyWithValue("model", "test-model"))
		Expect(upstream.lastBody).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 1024)))
		Expect(upstream.lastBody["messages"]).To(HaveLen(1))

		Expect(resp.ID).To(Equal("msg_01"))
		Expect(resp.Content).To(Equal([]model.ContentSegment{
			{Type: "text", Text: "hi there"},
			{Type: "text", Text: "again"},
		}))
		Expect(resp.FirstText()).To(Equal("hi there"))
		Expect(resp.Usage).To(Equal(model.Usage{InputTokens: 3, OutputTokens: 2}))
	})

	It("reports 429 as a rate limit without retrying", func() {
		upstream.status = http.StatusTooManyRequests
		upstream.body = `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`

		_, err := createMessage("anthropic", upstream.server.URL)
		Expect(model.AsError(err).Kind).To(Equal(model.KindRateLimit))
	})

	It("calls the upstream once when it fails", func() {
		upstream.status = http.StatusInternalServerError
		upstream.body = `{"type": "error", "error": {"type": "api_error", "message": "boom"}}`

		_, err := createMessage("anthropic", upstream.server.URL)
		apiErr := model.AsError(err)
		Expect(apiErr.Kind).To(Equal(model.KindStatus))
		Expect(apiErr.Detail).To(ContainSubstring("boom"))
		Expect(upstream.hits).To(Equal(1))
	})

	It("carries other status codes", func() {
		upstream.status = http.StatusTeapot
		upstream.body = `{"type": "error", "error": {"type": "api_error", "message": "teapot"}}`

		_, err := createMessage("anthropic", upstream.server.URL)
		apiErr := model.AsError(err)
		Expect(apiErr.Kind).To(Equal(model.KindStatus))
		Expect(apiErr.StatusCode).To(Equal(http.StatusTeapot))
	})

	It("reports an unreachable server as a connection error", func() {
		url := upstream.server.URL
		upstream.server.Close()

		_, err := createMessage("anthropic", url)
		apiErr := model.AsError(err)
		Expect(apiErr.Kind).To(Equal(model.KindConnection))
		Expect(apiErr.Cause).NotTo(BeNil())
	})
})

var _ = Describe("openai adapter", func() {
	var upstream *fakeUpstream

	BeforeEach(func() {
		upstream = newFakeUpstream()
		DeferCleanup(upstream.server.Close)
	})

	It("maps the first choice to a text segment", func() {
		upstream.body = `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
		}`

		resp, err := createMessage("openai", upstream.server.URL+"/v1")
		Expect(err).NotTo(HaveOccurred())

		Expect(upstream.lastPath).To(Equal("/v1/chat/completions"))
		Expect(upstream.lastBody).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 1024)))
		Expect(resp.Content).To(Equal([]model.ContentSegment{{Type: "text", Text: "hi there"}}))
		Expect(resp.StopReason).To(Equal("stop"))
		Expect(resp.Usage).To(Equal(model.Usage{InputTokens: 3, OutputTokens: 2}))
	})

	It("returns an empty content list when there are no choices", func() {
		upstream.body = `{"id": "chatcmpl-2", "object": "chat.completion", "model": "test-model", "choices": []}`

		resp, err := createMessage("openai", upstream.server.URL+"/v1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(BeEmpty())
		Expect(resp.FirstText()).To(BeEmpty())
	})

	DescribeTable("translates error statuses",
		func(status int, kind model.Kind) {
			upstream.status = status
			upstream.body = `{"error": {"message": "nope", "type": "invalid_request_error"}}`

			_, err := createMessage("openai", upstream.server.URL+"/v1")
			apiErr := model.AsError(err)
			Expect(apiErr.Kind).To(Equal(kind))
			Expect(apiErr.StatusCode).To(Equal(status))
			Expect(upstream.hits).To(Equal(1))
		},
		Entry("rate limit", http.StatusTooManyRequests, model.KindRateLimit),
		Entry("teapot", http.StatusTeapot, model.KindStatus),
		Entry("server error", http.StatusInternalServerError, model.KindStatus),
	)

	It("reports an unreachable server as a connection error", func() {
		url := upstream.server.URL
		upstream.server.Close()

		_, err := createMessage("openai", url+"/v1")
		Expect(model.AsError(err).Kind).To(Equal(model.KindConnection))
	})
})

// ark 和 qwen 走 eino，错误体都是 OpenAI 兼容格式
var _ = Describe("eino providers", func() {
	var upstream *fakeUpstream

	BeforeEach(func() {
		upstream = newFakeUpstream()
		DeferCleanup(upstream.server.Close)
	})

	for _, provider := range []string{"ark", "qwen"} {
		Context(provider, func() {
			DescribeTable("translates error statuses",
				func(status int, kind model.Kind) {
					upstream.status = status
					upstream.body = `{"error": {"message": "nope", "type": "invalid_request_error"}}`

					_, err := createMessage(provider, upstream.server.URL)
					apiErr := model.AsError(err)
					Expect(apiErr.Kind).To(Equal(kind))
					Expect(apiErr.StatusCode).To(Equal(status))
				},
				Entry("rate limit", http.StatusTooManyRequests, model.KindRateLimit),
				Entry("teapot", http.StatusTeapot, model.KindStatus),
				Entry("server error", http.StatusInternalServerError, model.KindStatus),
			)

			It("calls the upstream once when it fails", func() {
				upstream.status = http.StatusInternalServerError
				upstream.body = `{"error": {"message": "boom", "type": "server_error"}}`

				_, err := createMessage(provider, upstream.server.URL)
				Expect(err).To(HaveOccurred())
				Expect(upstream.hits).To(Equal(1))
				Expect(upstream.lastPath).To(HaveSuffix("/chat/completions"))
			})

			It("reports an unreachable server as a connection error", func() {
				url := upstream.server.URL
				upstream.server.Close()

				_, err := createMessage(provider, url)
				Expect(model.AsError(err).Kind).To(Equal(model.KindConnection))
			})
		})
	}
})

var _ = Describe("NewChatModel", func() {
	It("rejects unknown providers", func() {
		_, err := model.NewChatModel(context.Background(), config.LLMConfig{Provider: "llama"}, nil)
		Expect(err).To(MatchError(ContainSubstring("unsupported model provider")))
	})
})
