//go:build integration

package usagestore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/workout-coach/internal/domain/usage"
	"github.com/yanqian/workout-coach/internal/infra/pgtest"
)

func TestPostgresStore_AtomicIncrement(t *testing.T) {
	ctx := context.Background()
	store := NewPostgresStore(pgtest.NewPool(t))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Increment(ctx, "global", "2025-06-10")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	c, ok, err := store.Get(ctx, "global")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, usage.Counter{Count: workers, ResetKey: "2025-06-10"}, c)

	c, err = store.Increment(ctx, "global", "2025-06-11")
	require.NoError(t, err)
	require.Equal(t, 1, c.Count)

	require.NoError(t, store.Set(ctx, "global", usage.Counter{Count: 5, ResetKey: "2025-06-11"}))
	c, _, err = store.Get(ctx, "global")
	require.NoError(t, err)
	require.Equal(t, 5, c.Count)
}
