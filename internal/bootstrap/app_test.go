package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/multierr"

	"github.com/yanqian/workout-coach/internal/infra/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestClosers_ReverseOrderAndCombinedErrors(t *testing.T) {
	closers := NewClosers()
	var order []string
	closers.Add("postgres", func() error {
		order = append(order, "postgres")
		return errors.New("pool busy")
	})
	closers.Add("valkey", func() error {
		order = append(order, "valkey")
		return errors.New("conn reset")
	})

	err := closers.Close()
	require.Equal(t, []string{"valkey", "postgres"}, order)
	require.Len(t, multierr.Errors(err), 2)
	require.ErrorContains(t, err, "close postgres: pool busy")

	require.NoError(t, closers.Close())
	require.Len(t, order, 2)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	closed := false
	closers := NewClosers()
	closers.Add("store", func() error {
		closed = true
		return nil
	})
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0"}}
	server := &http.Server{Addr: cfg.HTTP.Address, Handler: http.NotFoundHandler()}
	app := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), server, closers)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	require.True(t, closed)
}
