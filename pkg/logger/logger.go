package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "workout-coach"

// New constructs a JSON slog logger. When LOG_FILE is set the output is also
// written to a size-rotated file.
func New() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	handler := slog.NewJSONHandler(output(os.Getenv("LOG_FILE")), &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", serviceName)
}

func output(file string) io.Writer {
	file = strings.TrimSpace(file)
	if file == "" {
		return os.Stdout
	}
	if !strings.HasSuffix(file, ".log") {
		file += ".log"
	}
	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		Compress:   true,
	}
	return &teeWriter{writers: []io.Writer{os.Stdout, rotating}}
}

// teeWriter writes to every writer and keeps going when one fails.
type teeWriter struct {
	writers []io.Writer
}

func (t *teeWriter) Write(p []byte) (int, error) {
	var err error
	for _, w := range t.writers {
		if _, werr := w.Write(p); werr != nil {
			err = multierr.Append(err, werr)
		}
	}
	return len(p), err
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
