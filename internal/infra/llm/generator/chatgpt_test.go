package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/infra/llm/chatgpt"
)

type stubCompleter struct {
	resp chatgpt.ChatCompletionResponse
	err  error
	req  chatgpt.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func completion(text string, usage *chatgpt.Usage) chatgpt.ChatCompletionResponse {
	var resp chatgpt.ChatCompletionResponse
	resp.Model = "gpt-4o-mini-2024-07-18"
	resp.Choices = append(resp.Choices, struct {
		Message      chatgpt.Message `json:"message"`
		FinishReason string          `json:"finish_reason"`
	}{Message: chatgpt.Message{Role: "assistant", Content: text}, FinishReason: "stop"})
	resp.Usage = usage
	return resp
}

func TestGenerate(t *testing.T) {
	stub := &stubCompleter{resp: completion("  ## RINGKASAN\nok \n", &chatgpt.Usage{PromptTokens: 800, CompletionTokens: 200, TotalTokens: 1000})}
	gen := NewChatGPTGenerator(stub, "gpt-4o-mini", 0.4, 1200, nil)

	out, err := gen.Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	require.Equal(t, "## RINGKASAN\nok", out.Text)
	require.Equal(t, "gpt-4o-mini-2024-07-18", out.Model)
	require.Equal(t, 1000, out.Usage.TotalTokens)
	require.Equal(t, 1200, stub.req.MaxTokens)
	require.Equal(t, "prompt text", stub.req.Messages[0].Content)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	gen := NewChatGPTGenerator(&stubCompleter{}, "gpt-4o-mini", 0, 0, nil)
	out, err := gen.Generate(context.Background(), "p")
	require.NoError(t, err)
	require.Empty(t, out.Text)
	require.Equal(t, "gpt-4o-mini", out.Model)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		want  analysis.Reason
		retry time.Duration
	}{
		{name: "429 with hint", err: &chatgpt.APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: 20 * time.Second}, want: analysis.ReasonRateLimited, retry: 20 * time.Second},
		{name: "401", err: &chatgpt.APIError{StatusCode: http.StatusUnauthorized}, want: analysis.ReasonAuth},
		{name: "403", err: &chatgpt.APIError{StatusCode: http.StatusForbidden}, want: analysis.ReasonAuth},
		{name: "404", err: &chatgpt.APIError{StatusCode: http.StatusNotFound}, want: analysis.ReasonNotFound},
		{name: "503", err: &chatgpt.APIError{StatusCode: http.StatusServiceUnavailable}, want: analysis.ReasonServer},
		{name: "400", err: &chatgpt.APIError{StatusCode: http.StatusBadRequest}, want: analysis.ReasonUnknown},
		{name: "wrapped api error", err: fmt.Errorf("call: %w", &chatgpt.APIError{StatusCode: 502}), want: analysis.ReasonServer},
		{name: "quota text", err: errors.New("RESOURCE_EXHAUSTED: quota exceeded"), want: analysis.ReasonRateLimited},
		{name: "api key text", err: errors.New("API key not valid"), want: analysis.ReasonAuth},
		{name: "model text", err: errors.New("model not found: gemini-x"), want: analysis.ReasonNotFound},
		{name: "overloaded text", err: errors.New("the model is overloaded"), want: analysis.ReasonServer},
		{name: "other text", err: errors.New("boom"), want: analysis.ReasonUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var genErr *analysis.GenerationError
			require.True(t, errors.As(Classify(tc.err), &genErr))
			require.Equal(t, tc.want, genErr.Reason)
			require.Equal(t, tc.retry, genErr.RetryAfter)
			require.ErrorIs(t, genErr, tc.err)
		})
	}
}

func TestClassify_PassesThroughContextErrors(t *testing.T) {
	require.NoError(t, Classify(nil))
	require.Equal(t, context.DeadlineExceeded, Classify(context.DeadlineExceeded))
	wrapped := fmt.Errorf("request chat completion: %w", context.Canceled)
	require.Equal(t, wrapped, Classify(wrapped))
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured{}.Generate(context.Background(), "p")
	var genErr *analysis.GenerationError
	require.True(t, errors.As(err, &genErr))
	require.Equal(t, analysis.ReasonAuth, genErr.Reason)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestTokenCounter_EmptyText(t *testing.T) {
	counter := NewTokenCounter("gpt-4o-mini", nil)
	require.Zero(t, counter.Count(""))
}
