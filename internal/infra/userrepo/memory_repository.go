package userrepo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/yanqian/workout-coach/internal/domain/auth"
)

// MemoryRepository keeps accounts in process memory. IDs are dense and start
// at 1, so accounts[id-1] is the account with that ID.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts []auth.User
	byEmail  map[string]int64
	now      func() time.Time
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]int64), now: time.Now}
}

// Create appends an account; emails are compared case-insensitively.
func (r *MemoryRepository) Create(_ context.Context, email, nickname, passwordHash string) (auth.User, error) {
	key := strings.ToLower(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[key]; taken {
		return auth.User{}, auth.ErrEmailExists
	}
	user := auth.User{
		ID:           int64(len(r.accounts) + 1),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC(),
	}
	r.accounts = append(r.accounts, user)
	r.byEmail[key] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	r.mu.RLock()
	id, ok := r.byEmail[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return auth.User{}, false, nil
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 1 || id > int64(len(r.accounts)) {
		return auth.User{}, false, nil
	}
	return r.accounts[id-1], true, nil
}

var _ auth.Repository = (*MemoryRepository)(nil)
