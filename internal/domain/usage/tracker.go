package usage

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimezone is the calendar the daily quota resets on.
const DefaultTimezone = "America/Los_Angeles"

// Scope selects whether the quota is shared or per user.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeUser   Scope = "user"
)

// Counter is the persisted usage record.
type Counter struct {
	Count    int    `json:"usageCount"`
	ResetKey string `json:"lastReset"`
}

// Store persists counters. Increment must be atomic: when the stored ResetKey
// differs from resetKey the counter restarts at one under the new key.
type Store interface {
	Get(ctx context.Context, key string) (Counter, bool, error)
	Increment(ctx context.Context, key, resetKey string) (Counter, error)
	Set(ctx context.Context, key string, counter Counter) error
}

// Config drives the quota tracker.
type Config struct {
	DailyLimit int
	Timezone   *time.Location
	Scope      Scope
}

// Snapshot is the caller-facing view of the quota. Shared is set when the
// counter is the process-wide one rather than a single user's.
type Snapshot struct {
	Count     int           `json:"count"`
	Limit     int           `json:"limit"`
	Remaining int           `json:"remaining"`
	ResetKey  string        `json:"resetKey"`
	ResetsIn  time.Duration `json:"-"`
	Shared    bool          `json:"-"`
}

// Exhausted reports whether no generations are left today.
func (s Snapshot) Exhausted() bool {
	return s.Remaining <= 0
}

// Tracker computes daily usage against a fixed reference timezone.
type Tracker struct {
	cfg   Config
	store Store
	now   func() time.Time
}

// NewTracker builds a tracker. A nil timezone falls back to UTC.
func NewTracker(cfg Config, store Store) *Tracker {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.Scope == "" {
		cfg.Scope = ScopeGlobal
	}
	return &Tracker{cfg: cfg, store: store, now: time.Now}
}

// WithClock replaces the time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int {
	return t.cfg.DailyLimit
}

// ResetKey returns the calendar date of now in the reference timezone.
func (t *Tracker) ResetKey(now time.Time) string {
	return ResetKey(now, t.cfg.Timezone)
}

// Snapshot reads the counter, treating a stale reset key as zero usage.
func (t *Tracker) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	counter, _, err := t.store.Get(ctx, t.key(userID))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read usage counter: %w", err)
	}
	return t.snapshot(userID, counter, t.now()), nil
}

// Consume records one successful generation.
func (t *Tracker) Consume(ctx context.Context, userID string) (Snapshot, error) {
	now := t.now()
	counter, err := t.store.Increment(ctx, t.key(userID), t.ResetKey(now))
	if err != nil {
		return Snapshot{}, fmt.Errorf("increment usage counter: %w", err)
	}
	return t.snapshot(userID, counter, now), nil
}

// Set overrides today's count.
func (t *Tracker) Set(ctx context.Context, userID string, count int) (Snapshot, error) {
	if count < 0 {
		return Snapshot{}, fmt.Errorf("usage count cannot be negative")
	}
	now := t.now()
	counter := Counter{Count: count, ResetKey: t.ResetKey(now)}
	if err := t.store.Set(ctx, t.key(userID), counter); err != nil {
		return Snapshot{}, fmt.Errorf("write usage counter: %w", err)
	}
	return t.snapshot(userID, counter, now), nil
}

func (t *Tracker) snapshot(userID string, counter Counter, now time.Time) Snapshot {
	today := t.ResetKey(now)
	count := EffectiveCount(counter, today)
	return Snapshot{
		Count:     count,
		Limit:     t.cfg.DailyLimit,
		Remaining: Remaining(t.cfg.DailyLimit, count),
		ResetKey:  today,
		ResetsIn:  TimeUntilReset(now, t.cfg.Timezone),
		Shared:    t.key(userID) == string(ScopeGlobal),
	}
}

func (t *Tracker) key(userID string) string {
	if t.cfg.Scope == ScopeUser && userID != "" {
		return "user:" + userID
	}
	return string(ScopeGlobal)
}

// ResetKey formats the local calendar date of now in loc.
func ResetKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

// EffectiveCount is the stored count when it belongs to today, otherwise zero.
func EffectiveCount(counter Counter, today string) int {
	if counter.ResetKey != today {
		return 0
	}
	return counter.Count
}

// Remaining is max(0, limit-count).
func Remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}

// TimeUntilReset is the duration until the next local midnight in loc.
func TimeUntilReset(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return next.Sub(local)
}
