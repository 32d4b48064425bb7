package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResetKey_UsesReferenceTimezone(t *testing.T) {
	la := mustLoad(t, DefaultTimezone)
	// 07:30 UTC on Mar 2 is still Mar 1 in Los Angeles.
	now := time.Date(2025, 3, 2, 7, 30, 0, 0, time.UTC)
	require.Equal(t, "2025-03-01", ResetKey(now, la))
	require.Equal(t, "2025-03-02", ResetKey(now, time.UTC))
}

func TestRemaining(t *testing.T) {
	require.Equal(t, 20, Remaining(20, 0))
	require.Equal(t, 1, Remaining(20, 19))
	require.Equal(t, 0, Remaining(20, 20))
	require.Equal(t, 0, Remaining(20, 35))
}

func TestTimeUntilReset(t *testing.T) {
	la := mustLoad(t, DefaultTimezone)
	now := time.Date(2025, 6, 10, 22, 0, 0, 0, la)
	require.Equal(t, 2*time.Hour, TimeUntilReset(now, la))

	// DST starts Mar 9 2025 in Los Angeles, so that local day is 23 hours long.
	midnight := time.Date(2025, 3, 9, 0, 0, 0, 0, la)
	require.Equal(t, 23*time.Hour, TimeUntilReset(midnight, la))
}

func TestTracker_LazyReset(t *testing.T) {
	la := mustLoad(t, DefaultTimezone)
	store := newMapStore()
	store.counters["global"] = Counter{Count: 20, ResetKey: "2025-03-01"}

	clock := time.Date(2025, 3, 1, 23, 0, 0, 0, la)
	tracker := NewTracker(Config{DailyLimit: 20, Timezone: la}, store).WithClock(func() time.Time { return clock })

	snap, err := tracker.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, snap.Exhausted())
	require.Equal(t, time.Hour, snap.ResetsIn)

	clock = clock.Add(2 * time.Hour)
	snap, err = tracker.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 0, snap.Count)
	require.Equal(t, 20, snap.Remaining)
	require.Equal(t, "2025-03-02", snap.ResetKey)

	snap, err = tracker.Consume(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, snap.Count)
	require.Equal(t, Counter{Count: 1, ResetKey: "2025-03-02"}, store.counters["global"])
}

func TestTracker_UserScope(t *testing.T) {
	store := newMapStore()
	tracker := NewTracker(Config{DailyLimit: 2, Scope: ScopeUser}, store)

	_, err := tracker.Consume(context.Background(), "a")
	require.NoError(t, err)
	snap, err := tracker.Consume(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, snap.Exhausted())

	other, err := tracker.Snapshot(context.Background(), "b")
	require.NoError(t, err)
	require.Equal(t, 2, other.Remaining)
	require.False(t, other.Shared)

	anonymous, err := tracker.Snapshot(context.Background(), "")
	require.NoError(t, err)
	require.True(t, anonymous.Shared)
}

func TestTracker_Set(t *testing.T) {
	store := newMapStore()
	tracker := NewTracker(Config{DailyLimit: 5}, store)

	snap, err := tracker.Set(context.Background(), "", 3)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Remaining)
	require.True(t, snap.Shared)

	_, err = tracker.Set(context.Background(), "", -1)
	require.Error(t, err)
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

type mapStore struct {
	mu       sync.Mutex
	counters map[string]Counter
}

func newMapStore() *mapStore {
	return &mapStore{counters: make(map[string]Counter)}
}

func (s *mapStore) Get(_ context.Context, key string) (Counter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	return c, ok, nil
}

func (s *mapStore) Increment(_ context.Context, key, resetKey string) (Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[key]
	if c.ResetKey != resetKey {
		c = Counter{ResetKey: resetKey}
	}
	c.Count++
	s.counters[key] = c
	return c, nil
}

func (s *mapStore) Set(_ context.Context, key string, counter Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = counter
	return nil
}
