//go:build integration

package userrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/workout-coach/internal/domain/auth"
	"github.com/yanqian/workout-coach/internal/infra/pgtest"
)

func TestPostgresRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresRepository(pgtest.NewPool(t))

	user, err := repo.Create(ctx, "rider@example.com", "Rider", "hash")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "rider@example.com", "Rider", "hash")
	require.ErrorIs(t, err, auth.ErrEmailExists)

	got, ok, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "rider@example.com", got.Email)
}
