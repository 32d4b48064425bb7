package generator

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/workout-coach/pkg/metrics"
)

const fallbackEncoding = "cl100k_base"

// TokenCounter estimates token usage when the backend omits it.
type TokenCounter struct {
	model  string
	logger *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter builds a counter for model. The encoding loads lazily.
func NewTokenCounter(model string, logger *slog.Logger) *TokenCounter {
	return &TokenCounter{model: model, logger: logger}
}

// Estimate counts prompt and completion tokens.
func (c *TokenCounter) Estimate(prompt, completion string) metrics.TokenUsage {
	p, r := c.Count(prompt), c.Count(completion)
	return metrics.TokenUsage{PromptTokens: p, CompletionTokens: r, TotalTokens: p + r}
}

// Count returns the token count of text, or a chars/4 approximation when no
// encoding is available.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + 3) / 4
}

func (c *TokenCounter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("token encoding unavailable, using approximation", "model", c.model, "error", err)
			}
			return
		}
		c.enc = enc
	})
	return c.enc
}
