package analysis

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind is the stable failure category surfaced to callers.
type Kind string

const (
	KindUnauthorized        Kind = "unauthorized"
	KindValidation          Kind = "validation_error"
	KindCooldownActive      Kind = "cooldown_active"
	KindQuotaExhausted      Kind = "quota_exhausted"
	KindRateLimited         Kind = "rate_limited"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindAuthConfig          Kind = "auth_config_error"
	KindEmptyResult         Kind = "empty_result"
	KindNotFound            Kind = "not_found"
	KindUnknown             Kind = "unknown"
)

// maxUnknownMessage bounds backend text echoed back to callers.
const maxUnknownMessage = 200

// Error is returned by every Service operation that fails.
type Error struct {
	Kind    Kind
	Message string
	// RetryAfter is set for cooldown, quota and rate limit failures.
	RetryAfter time.Duration
	// CachedContent is the last stored analysis, offered as a fallback.
	CachedContent string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode lets pkg/errors.IsCode match on Kind.
func (e *Error) ErrorCode() string {
	return string(e.Kind)
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (e *Error) RetryAfterSeconds() int {
	return ceilSeconds(e.RetryAfter)
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func unknownError(err error) *Error {
	msg := "analysis failed"
	if err != nil {
		msg = truncate(err.Error(), maxUnknownMessage)
	}
	return &Error{Kind: KindUnknown, Message: msg, Err: err}
}

// Reason classifies generation backend failures.
type Reason string

const (
	ReasonRateLimited Reason = "rate_limited"
	ReasonNotFound    Reason = "not_found"
	ReasonAuth        Reason = "auth"
	ReasonServer      Reason = "server"
	ReasonUnknown     Reason = "unknown"
)

// GenerationError is what Generator implementations return on failure.
type GenerationError struct {
	Reason     Reason
	RetryAfter time.Duration
	Err        error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return "generation " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "generation " + string(e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

var (
	// ErrActivityNotFound is returned by activity sources for unknown IDs.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrSourceUnauthorized is returned when the source rejects the credential.
	ErrSourceUnauthorized = errors.New("activity source rejected credentials")
	// ErrLockTimeout is returned by lockers when the wait budget runs out.
	ErrLockTimeout = errors.New("timed out waiting for analysis lock")
)

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	if limit <= 3 {
		return text[:runeBoundary(text, limit)]
	}
	return strings.TrimSpace(text[:runeBoundary(text, limit-3)]) + "..."
}

// runeBoundary backs n off so text[:n] does not split a UTF-8 sequence.
func runeBoundary(text string, n int) int {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return n
}
