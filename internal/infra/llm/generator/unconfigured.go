package generator

import (
	"context"
	"errors"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
)

// ErrNotConfigured is wrapped by Unconfigured failures.
var ErrNotConfigured = errors.New("llm api key is not configured")

// Unconfigured stands in when no API key is set so the rest of the app still
// serves cached analyses.
type Unconfigured struct{}

func (Unconfigured) Generate(context.Context, string) (analysis.Generation, error) {
	return analysis.Generation{}, &analysis.GenerationError{Reason: analysis.ReasonAuth, Err: ErrNotConfigured}
}

var _ analysis.Generator = Unconfigured{}
