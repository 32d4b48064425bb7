package profilerepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/workout-coach/internal/domain/athlete"
)

// PostgresRepository persists profiles in athlete_profiles.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (athlete.Profile, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, age, weight_kg, height_cm, resting_hr, updated_at
		FROM athlete_profiles
		WHERE user_id = $1
	`, userID)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return athlete.Profile{}, false, nil
	}
	if err != nil {
		return athlete.Profile{}, false, err
	}
	return profile, true, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, profile athlete.Profile) (athlete.Profile, error) {
	updated := profile.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO athlete_profiles (user_id, age, weight_kg, height_cm, resting_hr, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET age = EXCLUDED.age,
		    weight_kg = EXCLUDED.weight_kg,
		    height_cm = EXCLUDED.height_cm,
		    resting_hr = EXCLUDED.resting_hr,
		    updated_at = EXCLUDED.updated_at
		RETURNING user_id, age, weight_kg, height_cm, resting_hr, updated_at
	`, profile.UserID, profile.Age, profile.WeightKg, profile.HeightCm, profile.RestingHeartRate, updated)
	return scanProfile(row)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM athlete_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanProfile(row pgx.Row) (athlete.Profile, error) {
	var p athlete.Profile
	var updated time.Time
	if err := row.Scan(&p.UserID, &p.Age, &p.WeightKg, &p.HeightCm, &p.RestingHeartRate, &updated); err != nil {
		return athlete.Profile{}, err
	}
	p.UpdatedAt = updated.UTC()
	return p, nil
}

var _ athlete.Repository = (*PostgresRepository)(nil)
