package keylock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
)

var releaseScript = valkey.NewLuaScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// ValkeyLocker holds per-key locks in Valkey so several app instances share them.
type ValkeyLocker struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
	poll   time.Duration
	logger *slog.Logger
}

// NewValkeyLocker constructs a locker. ttl bounds how long a crashed holder
// can keep a key.
func NewValkeyLocker(client valkey.Client, prefix string, ttl time.Duration, logger *slog.Logger) *ValkeyLocker {
	if prefix == "" {
		prefix = "lock"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &ValkeyLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		poll:   50 * time.Millisecond,
		logger: logger.With("component", "keylock.valkey"),
	}
}

func (l *ValkeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("%s:%s", l.prefix, key)
	token := uuid.NewString()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		acquired, err := l.tryAcquire(ctx, lockKey, token)
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() { l.release(lockKey, token) }, nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, waitError(ctx.Err())
		}
	}
}

func (l *ValkeyLocker) tryAcquire(ctx context.Context, key, token string) (bool, error) {
	cmd := l.client.B().Set().Key(key).Value(token).Nx().Px(l.ttl).Build()
	err := l.client.Do(ctx, cmd).Error()
	if err == nil {
		return true, nil
	}
	if valkey.IsValkeyNil(err) {
		return false, nil
	}
	return false, err
}

func (l *ValkeyLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Exec(ctx, l.client, []string{key}, []string{token}).Error(); err != nil {
		l.logger.Warn("failed to release lock", "key", key, "error", err)
	}
}

var _ analysis.Locker = (*ValkeyLocker)(nil)
