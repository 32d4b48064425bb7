package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type customErr struct{}

func (customErr) Error() string     { return "custom" }
func (customErr) ErrorCode() string { return "custom_code" }

func TestIsCode(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap("invalid_input", "bad request", base))

	require.True(t, IsCode(err, "invalid_input"))
	require.False(t, IsCode(err, "other"))
	require.ErrorIs(t, err, base)
	require.Equal(t, "outer: bad request: boom", err.Error())

	require.True(t, IsCode(fmt.Errorf("wrapped: %w", customErr{}), "custom_code"))
	require.Equal(t, "", CodeOf(base))
	require.False(t, IsCode(nil, ""))
}
