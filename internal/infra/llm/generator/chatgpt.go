package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/infra/llm/chatgpt"
	"github.com/yanqian/workout-coach/pkg/metrics"
)

// Completer is the slice of the ChatGPT client the generator needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// ChatGPTGenerator adapts the ChatGPT client to analysis.Generator.
type ChatGPTGenerator struct {
	client      Completer
	model       string
	temperature float32
	maxTokens   int
	counter     *TokenCounter
}

// NewChatGPTGenerator constructs the adapter.
func NewChatGPTGenerator(client Completer, model string, temperature float32, maxTokens int, counter *TokenCounter) *ChatGPTGenerator {
	return &ChatGPTGenerator{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		counter:     counter,
	}
}

// Generate sends prompt as a single user message.
func (g *ChatGPTGenerator) Generate(ctx context.Context, prompt string) (analysis.Generation, error) {
	resp, err := g.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		Messages:    []chatgpt.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return analysis.Generation{}, Classify(err)
	}

	gen := analysis.Generation{Model: resp.Model}
	if gen.Model == "" {
		gen.Model = g.model
	}
	if len(resp.Choices) > 0 {
		gen.Text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if resp.Usage != nil {
		gen.Usage = metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	} else if g.counter != nil {
		gen.Usage = g.counter.Estimate(prompt, gen.Text)
	}
	return gen, nil
}

// Classify turns client failures into *analysis.GenerationError. Deadline
// and cancellation errors pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var genErr *analysis.GenerationError
	if errors.As(err, &genErr) {
		return err
	}

	var apiErr *chatgpt.APIError
	if errors.As(err, &apiErr) {
		return &analysis.GenerationError{
			Reason:     reasonForStatus(apiErr.StatusCode),
			RetryAfter: apiErr.RetryAfter,
			Err:        err,
		}
	}
	return &analysis.GenerationError{Reason: reasonForText(err.Error()), Err: err}
}

func reasonForStatus(status int) analysis.Reason {
	switch {
	case status == http.StatusTooManyRequests:
		return analysis.ReasonRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return analysis.ReasonAuth
	case status == http.StatusNotFound:
		return analysis.ReasonNotFound
	case status == http.StatusRequestTimeout || status >= 500:
		return analysis.ReasonServer
	default:
		return analysis.ReasonUnknown
	}
}

// reasonForText handles transports that only surface a message.
func reasonForText(msg string) analysis.Reason {
	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, "429", "quota", "resource_exhausted", "rate limit"):
		return analysis.ReasonRateLimited
	case containsAny(msg, "api key", "permission", "unauthorized", "401", "403"):
		return analysis.ReasonAuth
	case containsAny(msg, "model not found", "404"):
		return analysis.ReasonNotFound
	case containsAny(msg, "503", "502", "unavailable", "overloaded"):
		return analysis.ReasonServer
	default:
		return analysis.ReasonUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var _ analysis.Generator = (*ChatGPTGenerator)(nil)
