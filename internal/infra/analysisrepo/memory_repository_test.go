package analysisrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
)

func TestMemoryRepository_UpsertKeepsCreatedAt(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	first := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	stored, err := repo.Upsert(ctx, analysis.Record{UserID: "u1", ActivityID: 7, Content: "v1", UpdatedAt: first})
	require.NoError(t, err)
	require.Equal(t, first, stored.CreatedAt)

	second := first.Add(5 * time.Minute)
	stored, err = repo.Upsert(ctx, analysis.Record{UserID: "u1", ActivityID: 7, Content: "v2", UpdatedAt: second})
	require.NoError(t, err)
	require.Equal(t, first, stored.CreatedAt)
	require.Equal(t, second, stored.UpdatedAt)

	got, ok, err := repo.Get(ctx, "u1", 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", got.Content)
	require.Len(t, repo.records, 1)
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, rec := range []analysis.Record{
		{UserID: "u1", ActivityID: 1, Content: "a"},
		{UserID: "u1", ActivityID: 2, Content: "b"},
		{UserID: "u2", ActivityID: 1, Content: "c"},
	} {
		_, err := repo.Upsert(ctx, rec)
		require.NoError(t, err)
	}

	deleted, err := repo.Delete(ctx, "u1", 1)
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, err = repo.Delete(ctx, "u1", 1)
	require.NoError(t, err)
	require.False(t, deleted)

	n, err := repo.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, ok, err := repo.Get(ctx, "u2", 1)
	require.NoError(t, err)
	require.True(t, ok)
}
