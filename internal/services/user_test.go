package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/kv/memkv"
	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	repos := repository.New(memkv.New(), keys.NewScheme("test"), zerolog.Nop())
	return NewUserService(repos)
}

func TestDeleteUserCascadesSubscription(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, &model.User{Email: "a@example.com"})
	require.NoError(t, err)
	sub, err := svc.CreateSubscription(ctx, &model.Subscription{UserID: u.ID, PlanType: "pro"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))

	gone, err := svc.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "deleting the user must take the subscription with it")
}

func TestCreateSubscriptionLinksUser(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	_, err := svc.CreateSubscription(ctx, &model.Subscription{UserID: "no-such", PlanType: "pro"})
	assert.True(t, model.IsNotFound(err))

	u, err := svc.CreateUser(ctx, &model.User{Email: "b@example.com"})
	require.NoError(t, err)
	sub, err := svc.CreateSubscription(ctx, &model.Subscription{UserID: u.ID, PlanType: "pro"})
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SubscriptionID)
	assert.Equal(t, sub.ID, *got.SubscriptionID)

	// Cancellation clears the pointer again.
	require.NoError(t, svc.CancelSubscription(ctx, sub.ID))
	got, err = svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SubscriptionID)
}
