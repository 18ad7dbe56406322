package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatrelay-backend/internal/model"
)

var _ = Describe("MessageResponse", func() {
	It("returns the text of the first segment", func() {
		resp := &model.MessageResponse{Content: []model.ContentSegment{
			{Type: "text", Text: "hi there"},
			{Type: "text", Text: "second"},
		}}
		Expect(resp.FirstText()).To(Equal("hi there"))
	})

	It("returns an empty string without segments", func() {
		Expect((&model.MessageResponse{}).FirstText()).To(BeEmpty())
		var nilResp *model.MessageResponse
		Expect(nilResp.FirstText()).To(BeEmpty())
	})
})

var _ = Describe("NewUserMessageRequest", func() {
	It("builds a single user message", func() {
		req := model.NewUserMessageRequest("claude-3-sonnet-20240229", 1024, "hello")
		Expect(req.Model).To(Equal("claude-3-sonnet-20240229"))
		Expect(req.MaxTokens).To(Equal(1024))
		Expect(req.Messages).To(Equal([]model.Message{{Role: "user", Content: "hello"}}))
	})
})
