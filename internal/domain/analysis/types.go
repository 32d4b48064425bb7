package analysis

import (
	"context"
	"time"

	"github.com/yanqian/workout-coach/internal/domain/usage"
	"github.com/yanqian/workout-coach/internal/domain/workout"
	"github.com/yanqian/workout-coach/pkg/metrics"
)

// Config tunes the orchestrator.
type Config struct {
	Cooldown          time.Duration
	GenerationTimeout time.Duration
	LockWait          time.Duration
	MaxSamples        int
	MaxContentLength  int
}

// Record is a stored analysis. One live record exists per (UserID, ActivityID).
type Record struct {
	UserID        string    `json:"-"`
	ActivityID    int64     `json:"activityId"`
	Content       string    `json:"content"`
	Model         string    `json:"model,omitempty"`
	PromptVersion string    `json:"promptVersion,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Request asks for an analysis of one activity.
type Request struct {
	UserID       string               `json:"-"`
	ActivityID   int64                `json:"-"`
	ForceRefresh bool                 `json:"forceRefresh"`
	Profile      *workout.UserProfile `json:"profile,omitempty"`
	Activity     *workout.Activity    `json:"activity,omitempty"`
	Samples      []workout.Sample     `json:"samples,omitempty"`
	SourceToken  string               `json:"-"`
}

// Result is a successful analysis, fresh or cached.
type Result struct {
	ActivityID     int64               `json:"activityId"`
	Content        string              `json:"content"`
	IsCached       bool                `json:"isCached"`
	Model          string              `json:"model,omitempty"`
	PromptVersion  string              `json:"promptVersion,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	CooldownEndsAt time.Time           `json:"cooldownEndsAt"`
	TokenUsage     *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Generation is the raw output of a backend call.
type Generation struct {
	Text  string
	Model string
	Usage metrics.TokenUsage
}

// Repository stores analyses.
type Repository interface {
	Get(ctx context.Context, userID string, activityID int64) (Record, bool, error)
	Upsert(ctx context.Context, record Record) (Record, error)
	Delete(ctx context.Context, userID string, activityID int64) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Generator produces analysis text. Failures should be *GenerationError.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Locker serialises work on one key across requests.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Quota gates generations against the daily limit.
type Quota interface {
	Snapshot(ctx context.Context, userID string) (usage.Snapshot, error)
	Consume(ctx context.Context, userID string) (usage.Snapshot, error)
	Set(ctx context.Context, userID string, count int) (usage.Snapshot, error)
}

// ProfileSource supplies stored physiological profiles.
type ProfileSource interface {
	Lookup(ctx context.Context, userID string) (workout.UserProfile, bool, error)
}

// ActivitySource fetches activity summaries and streams from the platform
// they were recorded on.
type ActivitySource interface {
	Activity(ctx context.Context, credential string, activityID int64) (workout.Activity, []workout.Sample, error)
}
