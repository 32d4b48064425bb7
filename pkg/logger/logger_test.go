package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestTeeWriter_ContinuesAfterFailure(t *testing.T) {
	var first, second bytes.Buffer
	w := &teeWriter{writers: []io.Writer{&first, failingWriter{}, &second}}

	n, err := w.Write([]byte("line\n"))
	require.Equal(t, 5, n)
	require.Len(t, multierr.Errors(err), 1)
	require.Equal(t, "line\n", first.String())
	require.Equal(t, "line\n", second.String())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
}
