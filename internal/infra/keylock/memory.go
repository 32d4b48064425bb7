package keylock

import (
	"context"
	"errors"
	"sync"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
)

// MemoryLocker serialises callers per key within one process.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewMemoryLocker constructs an empty locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]chan struct{})}
}

// Lock blocks until key is free or ctx ends.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			done := make(chan struct{})
			l.locks[key] = done
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.locks, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, waitError(ctx.Err())
		}
	}
}

// Held reports how many keys are currently locked.
func (l *MemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func waitError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return analysis.ErrLockTimeout
	}
	return err
}

var _ analysis.Locker = (*MemoryLocker)(nil)
