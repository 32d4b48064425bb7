package analysisrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
)

// PostgresRepository implements analysis.Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get fetches the analysis for one activity.
func (r *PostgresRepository) Get(ctx context.Context, userID string, activityID int64) (analysis.Record, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, activity_id, content, model, prompt_version, created_at, updated_at
		FROM activity_analyses
		WHERE user_id = $1 AND activity_id = $2
		LIMIT 1
	`, userID, activityID)
	if err != nil {
		return analysis.Record{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return analysis.Record{}, false, rows.Err()
	}
	record, err := scanRecord(rows)
	if err != nil {
		return analysis.Record{}, false, err
	}
	return record, true, rows.Err()
}

// Upsert writes the analysis, replacing any previous one for the same key.
func (r *PostgresRepository) Upsert(ctx context.Context, record analysis.Record) (analysis.Record, error) {
	updated := record.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO activity_analyses (user_id, activity_id, content, model, prompt_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, activity_id) DO UPDATE
		SET content = EXCLUDED.content,
		    model = EXCLUDED.model,
		    prompt_version = EXCLUDED.prompt_version,
		    updated_at = EXCLUDED.updated_at
		RETURNING user_id, activity_id, content, model, prompt_version, created_at, updated_at
	`, record.UserID, record.ActivityID, record.Content, record.Model, record.PromptVersion, updated.UTC())
	return scanRecord(row)
}

// Delete removes one analysis.
func (r *PostgresRepository) Delete(ctx context.Context, userID string, activityID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM activity_analyses
		WHERE user_id = $1 AND activity_id = $2
	`, userID, activityID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByUser removes all analyses for a user.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activity_analyses WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (analysis.Record, error) {
	var record analysis.Record
	var created, updated time.Time
	if err := row.Scan(&record.UserID, &record.ActivityID, &record.Content, &record.Model, &record.PromptVersion, &created, &updated); err != nil {
		return analysis.Record{}, err
	}
	record.CreatedAt = created.UTC()
	record.UpdatedAt = updated.UTC()
	return record, nil
}

var _ analysis.Repository = (*PostgresRepository)(nil)
