package usagestore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/workout-coach/internal/domain/usage"
)

// PostgresStore keeps usage counters in the usage_counters table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (usage.Counter, bool, error) {
	var counter usage.Counter
	err := s.pool.QueryRow(ctx, `
		SELECT usage_count, reset_key
		FROM usage_counters
		WHERE scope_key = $1
	`, key).Scan(&counter.Count, &counter.ResetKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return usage.Counter{}, false, nil
	}
	if err != nil {
		return usage.Counter{}, false, err
	}
	return counter, true, nil
}

// Increment is a single upsert so concurrent callers never lose an update.
func (s *PostgresStore) Increment(ctx context.Context, key, resetKey string) (usage.Counter, error) {
	var counter usage.Counter
	err := s.pool.QueryRow(ctx, `
		INSERT INTO usage_counters (scope_key, usage_count, reset_key, updated_at)
		VALUES ($1, 1, $2, now())
		ON CONFLICT (scope_key) DO UPDATE
		SET usage_count = CASE
		        WHEN usage_counters.reset_key = EXCLUDED.reset_key THEN usage_counters.usage_count + 1
		        ELSE 1
		    END,
		    reset_key = EXCLUDED.reset_key,
		    updated_at = now()
		RETURNING usage_count, reset_key
	`, key, resetKey).Scan(&counter.Count, &counter.ResetKey)
	if err != nil {
		return usage.Counter{}, err
	}
	return counter, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, counter usage.Counter) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usage_counters (scope_key, usage_count, reset_key, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (scope_key) DO UPDATE
		SET usage_count = EXCLUDED.usage_count,
		    reset_key = EXCLUDED.reset_key,
		    updated_at = now()
	`, key, counter.Count, counter.ResetKey)
	return err
}

var _ usage.Store = (*PostgresStore)(nil)
