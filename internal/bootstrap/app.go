package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/yanqian/workout-coach/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	closers *Closers
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, closers *Closers) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, closers: closers}
}

// Run starts the HTTP server and blocks until shutdown. Backing connections
// are released once the server has stopped.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if closeErr := a.closers.Close(); closeErr != nil {
			a.logger.Error("release resources failed", "error", closeErr)
			err = multierr.Append(err, closeErr)
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
