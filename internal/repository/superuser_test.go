package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdesk/contentdesk/internal/model"
)

func TestSuperuserMembership(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	is, err := repos.Superusers.IsSuperuser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, is)

	require.NoError(t, repos.Superusers.AddSuperuser(ctx, "u1"))
	// Granting twice is harmless.
	require.NoError(t, repos.Superusers.AddSuperuser(ctx, "u1"))

	is, err = repos.Superusers.IsSuperuser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, is)

	require.NoError(t, repos.Superusers.RemoveSuperuser(ctx, "u1"))
	is, err = repos.Superusers.IsSuperuser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, is)

	// Revoking a non-member is a no-op.
	require.NoError(t, repos.Superusers.RemoveSuperuser(ctx, "u1"))
}

func TestSuperuserRequiresID(t *testing.T) {
	repos, _ := newTestRepos(t)
	_, err := repos.Superusers.IsSuperuser(context.Background(), "")
	assert.True(t, model.IsInvalidArgument(err))
}
