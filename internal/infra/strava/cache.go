package strava

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/coocood/freecache"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/domain/workout"
)

type cachedActivity struct {
	Activity workout.Activity `json:"activity"`
	Samples  []workout.Sample `json:"samples"`
}

// CachedSource keeps recently fetched activities in memory. Entries are keyed
// by activity and credential so one athlete's token never reads another's
// cached data. Samples are downsampled before caching; freecache rejects
// entries larger than 1/1024 of its size.
type CachedSource struct {
	source     analysis.ActivitySource
	cache      *freecache.Cache
	ttl        time.Duration
	maxSamples int
	logger     *slog.Logger
}

// NewCachedSource wraps source with a freecache of sizeBytes.
func NewCachedSource(source analysis.ActivitySource, sizeBytes int, ttl time.Duration, maxSamples int, logger *slog.Logger) *CachedSource {
	if sizeBytes <= 0 {
		sizeBytes = 64 * 1024 * 1024
	}
	if maxSamples <= 0 {
		maxSamples = workout.DefaultMaxSamples
	}
	return &CachedSource{
		source:     source,
		cache:      freecache.NewCache(sizeBytes),
		ttl:        ttl,
		maxSamples: maxSamples,
		logger:     logger.With("component", "strava.cache"),
	}
}

func (c *CachedSource) Activity(ctx context.Context, credential string, activityID int64) (workout.Activity, []workout.Sample, error) {
	key := cacheKey(credential, activityID)
	if raw, err := c.cache.Get(key); err == nil {
		var hit cachedActivity
		if err := json.Unmarshal(raw, &hit); err == nil {
			return hit.Activity, hit.Samples, nil
		}
		c.cache.Del(key)
	}

	activity, samples, err := c.source.Activity(ctx, credential, activityID)
	if err != nil {
		return workout.Activity{}, nil, err
	}
	samples = workout.Downsample(samples, c.maxSamples)
	payload, err := json.Marshal(cachedActivity{Activity: activity, Samples: samples})
	if err == nil {
		err = c.cache.Set(key, payload, int(c.ttl/time.Second))
	}
	if err != nil {
		c.logger.Warn("failed to cache activity", "activity_id", activityID, "error", err)
	}
	return activity, samples, nil
}

// Stats reports cache hits and misses.
func (c *CachedSource) Stats() (hits, misses int64) {
	return c.cache.HitCount(), c.cache.MissCount()
}

func cacheKey(credential string, activityID int64) []byte {
	sum := sha256.Sum256([]byte(credential))
	return []byte(strconv.FormatInt(activityID, 10) + ":" + hex.EncodeToString(sum[:8]))
}

var _ analysis.ActivitySource = (*CachedSource)(nil)
