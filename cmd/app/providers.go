package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/workout-coach/internal/bootstrap"
	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/domain/athlete"
	"github.com/yanqian/workout-coach/internal/domain/auth"
	"github.com/yanqian/workout-coach/internal/domain/prompt"
	"github.com/yanqian/workout-coach/internal/domain/usage"
	"github.com/yanqian/workout-coach/internal/infra/analysisrepo"
	"github.com/yanqian/workout-coach/internal/infra/config"
	"github.com/yanqian/workout-coach/internal/infra/keylock"
	"github.com/yanqian/workout-coach/internal/infra/llm/chatgpt"
	"github.com/yanqian/workout-coach/internal/infra/llm/generator"
	"github.com/yanqian/workout-coach/internal/infra/profilerepo"
	"github.com/yanqian/workout-coach/internal/infra/strava"
	"github.com/yanqian/workout-coach/internal/infra/usagestore"
	"github.com/yanqian/workout-coach/internal/infra/userrepo"
	httpiface "github.com/yanqian/workout-coach/internal/interface/http"
)

// backends holds the optional shared connections. Nil fields mean the
// memory implementations are used instead.
type backends struct {
	pool   *pgxpool.Pool
	valkey valkey.Client
}

func provideBackends(cfg *config.Config, logger *slog.Logger, closers *bootstrap.Closers) backends {
	var b backends
	if pool := openPostgres(cfg.Storage.Postgres, logger); pool != nil {
		b.pool = pool
		closers.Add("postgres", func() error {
			pool.Close()
			return nil
		})
	}
	if client := openValkey(cfg.Storage.Valkey, logger); client != nil {
		b.valkey = client
		closers.Add("valkey", func() error {
			client.Close()
			return nil
		})
	}
	return b
}

func openPostgres(cfg config.PostgresConfig, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres storage enabled")
	return pool
}

func openValkey(cfg config.ValkeyConfig, logger *slog.Logger) valkey.Client {
	if !cfg.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back", "error", err)
		client.Close()
		return nil
	}
	logger.Info("valkey enabled", "addr", cfg.Addr)
	return client
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideAnalysisRepository(b backends) analysis.Repository {
	if b.pool != nil {
		return analysisrepo.NewPostgresRepository(b.pool)
	}
	return analysisrepo.NewMemoryRepository()
}

func provideProfileRepository(b backends) athlete.Repository {
	if b.pool != nil {
		return profilerepo.NewPostgresRepository(b.pool)
	}
	return profilerepo.NewMemoryRepository()
}

func provideUserRepository(b backends) auth.Repository {
	if b.pool != nil {
		return userrepo.NewPostgresRepository(b.pool)
	}
	return userrepo.NewMemoryRepository()
}

// provideUsageStore prefers valkey, then postgres.
func provideUsageStore(cfg *config.Config, b backends, logger *slog.Logger) usage.Store {
	switch {
	case b.valkey != nil:
		logger.Info("usage counters stored in valkey")
		return usagestore.NewValkeyStore(b.valkey, cfg.Storage.Valkey.Prefix, cfg.Storage.Valkey.UsageTTL)
	case b.pool != nil:
		logger.Info("usage counters stored in postgres")
		return usagestore.NewPostgresStore(b.pool)
	default:
		return usagestore.NewMemoryStore()
	}
}

func provideLocker(cfg *config.Config, b backends, logger *slog.Logger) analysis.Locker {
	if b.valkey != nil {
		return keylock.NewValkeyLocker(b.valkey, cfg.Storage.Valkey.Prefix, cfg.Analysis.LockTTL, logger)
	}
	return keylock.NewMemoryLocker()
}

func provideUsageTracker(cfg *config.Config, store usage.Store) (*usage.Tracker, error) {
	loc, err := time.LoadLocation(cfg.Usage.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load usage timezone: %w", err)
	}
	return usage.NewTracker(usage.Config{
		DailyLimit: cfg.Usage.DailyLimit,
		Timezone:   loc,
		Scope:      usage.Scope(cfg.Usage.Scope),
	}, store), nil
}

func providePromptBuilder(cfg *config.Config) (*prompt.Builder, error) {
	return prompt.NewBuilder(cfg.Analysis.PromptVersion)
}

func provideGenerator(cfg *config.Config, logger *slog.Logger) (analysis.Generator, error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("llm api key not set, generation disabled")
		return generator.Unconfigured{}, nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		return nil, err
	}
	counter := generator.NewTokenCounter(cfg.LLM.Model, logger)
	return generator.NewChatGPTGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens, counter), nil
}

func provideActivitySource(cfg *config.Config, logger *slog.Logger) analysis.ActivitySource {
	client := strava.NewClient(cfg.Strava.BaseURL, cfg.Strava.Timeout)
	if cfg.Strava.CacheSizeMB <= 0 {
		return client
	}
	return strava.NewCachedSource(client, cfg.Strava.CacheSizeMB<<20, cfg.Strava.CacheTTL, cfg.Analysis.MaxSamples, logger)
}

func provideProfileSource(svc athlete.Service) analysis.ProfileSource {
	return svc
}

func provideAnalysisConfig(cfg *config.Config) analysis.Config {
	return analysis.Config{
		Cooldown:          cfg.Analysis.Cooldown,
		GenerationTimeout: cfg.LLM.Timeout,
		LockWait:          cfg.Analysis.LockWait,
		MaxSamples:        cfg.Analysis.MaxSamples,
		MaxContentLength:  cfg.Analysis.MaxContentLength,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		Issuer:          cfg.Auth.Issuer,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		AdminEmails:     cfg.Auth.AdminEmails,
	}
}

func provideModelInfo(cfg *config.Config) httpiface.ModelInfo {
	name := cfg.LLM.ModelName
	if name == "" {
		name = cfg.LLM.Model
	}
	return httpiface.ModelInfo{
		ID:   cfg.LLM.Model,
		Name: name,
		Limits: httpiface.ModelLimits{
			RPM: cfg.Usage.RPM,
			TPM: cfg.Usage.TPM,
			RPD: cfg.Usage.DailyLimit,
		},
	}
}
