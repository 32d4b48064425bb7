package analysisrepo

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
)

type recordKey struct {
	userID     string
	activityID int64
}

// MemoryRepository keeps analyses in process memory for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[recordKey]analysis.Record
	now     func() time.Time
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[recordKey]analysis.Record),
		now:     time.Now,
	}
}

// Get implements analysis.Repository.
func (r *MemoryRepository) Get(_ context.Context, userID string, activityID int64) (analysis.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[recordKey{userID: userID, activityID: activityID}]
	return record, ok, nil
}

// Upsert replaces the stored analysis while keeping its creation time.
func (r *MemoryRepository) Upsert(_ context.Context, record analysis.Record) (analysis.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = r.now().UTC()
	}
	key := recordKey{userID: record.UserID, activityID: record.ActivityID}
	if existing, ok := r.records[key]; ok {
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = record.UpdatedAt
	}
	r.records[key] = record
	return record, nil
}

// Delete removes one analysis.
func (r *MemoryRepository) Delete(_ context.Context, userID string, activityID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{userID: userID, activityID: activityID}
	if _, ok := r.records[key]; !ok {
		return false, nil
	}
	delete(r.records, key)
	return true, nil
}

// DeleteByUser removes every analysis owned by userID.
func (r *MemoryRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for key := range r.records {
		if key.userID == userID {
			delete(r.records, key)
			removed++
		}
	}
	return removed, nil
}

var _ analysis.Repository = (*MemoryRepository)(nil)
