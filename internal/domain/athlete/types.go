package athlete

import (
	"context"
	"time"

	"github.com/yanqian/workout-coach/internal/domain/workout"
)

// Profile is a stored physiological profile.
type Profile struct {
	UserID string `json:"-"`
	workout.UserProfile
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository persists profiles keyed by user.
type Repository interface {
	Get(ctx context.Context, userID string) (Profile, bool, error)
	Upsert(ctx context.Context, profile Profile) (Profile, error)
	Delete(ctx context.Context, userID string) (bool, error)
}
