package usagestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/workout-coach/internal/domain/usage"
)

const (
	fieldCount    = "count"
	fieldResetKey = "reset_key"
)

// incrementScript rolls the counter over when the stored reset key differs.
var incrementScript = valkey.NewLuaScript(`
local current = redis.call('HGET', KEYS[1], 'reset_key')
local count
if current == ARGV[1] then
  count = redis.call('HINCRBY', KEYS[1], 'count', 1)
else
  redis.call('HSET', KEYS[1], 'count', 1, 'reset_key', ARGV[1])
  count = 1
end
if tonumber(ARGV[2]) > 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return count
`)

// ValkeyStore keeps usage counters in Valkey hashes.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store. Keys expire after ttl of inactivity so
// abandoned per-user counters do not accumulate.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "usage"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (usage.Counter, bool, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(s.counterKey(key)).Build()).AsStrMap()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return usage.Counter{}, false, nil
		}
		return usage.Counter{}, false, err
	}
	if len(fields) == 0 {
		return usage.Counter{}, false, nil
	}
	counter, err := parseCounter(fields)
	if err != nil {
		return usage.Counter{}, false, err
	}
	return counter, true, nil
}

func (s *ValkeyStore) Increment(ctx context.Context, key, resetKey string) (usage.Counter, error) {
	ttl := strconv.FormatInt(int64(s.ttl/time.Second), 10)
	count, err := incrementScript.Exec(ctx, s.client, []string{s.counterKey(key)}, []string{resetKey, ttl}).AsInt64()
	if err != nil {
		return usage.Counter{}, err
	}
	return usage.Counter{Count: int(count), ResetKey: resetKey}, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, counter usage.Counter) error {
	cmd := s.client.B().Hset().Key(s.counterKey(key)).FieldValue().
		FieldValue(fieldCount, strconv.Itoa(counter.Count)).
		FieldValue(fieldResetKey, counter.ResetKey).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return err
	}
	if s.ttl > 0 {
		return s.client.Do(ctx, s.client.B().Expire().Key(s.counterKey(key)).Seconds(int64(s.ttl/time.Second)).Build()).Error()
	}
	return nil
}

func (s *ValkeyStore) counterKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func parseCounter(fields map[string]string) (usage.Counter, error) {
	counter := usage.Counter{ResetKey: fields[fieldResetKey]}
	if raw := fields[fieldCount]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return usage.Counter{}, fmt.Errorf("parse usage count %q: %w", raw, err)
		}
		counter.Count = n
	}
	return counter, nil
}

var _ usage.Store = (*ValkeyStore)(nil)
