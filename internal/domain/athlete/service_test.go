package athlete

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/workout-coach/internal/domain/workout"
	apperrors "github.com/yanqian/workout-coach/pkg/errors"
)

type memoryRepo struct {
	profiles map[string]Profile
	err      error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{profiles: make(map[string]Profile)}
}

func (r *memoryRepo) Get(_ context.Context, userID string) (Profile, bool, error) {
	if r.err != nil {
		return Profile{}, false, r.err
	}
	p, ok := r.profiles[userID]
	return p, ok, nil
}

func (r *memoryRepo) Upsert(_ context.Context, profile Profile) (Profile, error) {
	if r.err != nil {
		return Profile{}, r.err
	}
	r.profiles[profile.UserID] = profile
	return profile, nil
}

func (r *memoryRepo) Delete(_ context.Context, userID string) (bool, error) {
	_, ok := r.profiles[userID]
	delete(r.profiles, userID)
	return ok, r.err
}

func newTestService(repo Repository) *service {
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))).(*service)
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestUpdateAndGet(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Get(ctx, "7")
	require.True(t, apperrors.IsCode(err, "not_found"))

	stored, err := svc.Update(ctx, "7", workout.UserProfile{Age: 34, WeightKg: 68, HeightCm: 175, RestingHeartRate: 55})
	require.NoError(t, err)
	require.Equal(t, "7", stored.UserID)
	require.Equal(t, time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC), stored.UpdatedAt)

	got, err := svc.Get(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, 34, got.Age)

	profile, ok, err := svc.Lookup(ctx, "7")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 55, profile.RestingHeartRate)
}

func TestUpdate_Validation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	tests := []struct {
		name    string
		userID  string
		profile workout.UserProfile
		code    string
	}{
		{name: "anonymous", profile: workout.UserProfile{Age: 30, RestingHeartRate: 60}, code: "unauthorized"},
		{name: "age", userID: "1", profile: workout.UserProfile{Age: 0, RestingHeartRate: 60}, code: "invalid_input"},
		{name: "resting hr", userID: "1", profile: workout.UserProfile{Age: 30, RestingHeartRate: 10}, code: "invalid_input"},
		{name: "weight", userID: "1", profile: workout.UserProfile{Age: 30, RestingHeartRate: 60, WeightKg: -1}, code: "invalid_input"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), tc.userID, tc.profile)
			require.True(t, apperrors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestDeleteAndRepoErrors(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	_, err := svc.Update(ctx, "1", workout.UserProfile{Age: 30, RestingHeartRate: 60})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "1"))
	_, ok, err := svc.Lookup(ctx, "1")
	require.NoError(t, err)
	require.False(t, ok)

	repo.err = errors.New("db down")
	_, _, err = svc.Lookup(ctx, "1")
	require.Error(t, err)
	_, err = svc.Get(ctx, "1")
	require.True(t, apperrors.IsCode(err, "profile_error"))
}
