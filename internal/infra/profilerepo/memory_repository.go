package profilerepo

import (
	"context"
	"sync"

	"github.com/yanqian/workout-coach/internal/domain/athlete"
)

// MemoryRepository keeps profiles in process memory for tests/dev.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]athlete.Profile
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]athlete.Profile)}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (athlete.Profile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	return p, ok, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, profile athlete.Profile) (athlete.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
	return profile, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.profiles[userID]
	delete(r.profiles, userID)
	return ok, nil
}

var _ athlete.Repository = (*MemoryRepository)(nil)
