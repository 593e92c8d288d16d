package repository

import (
	"context"

	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/keys"
)

// SuperuserRepository is a minimal membership check backed by one global set.
type SuperuserRepository struct {
	kv kv.Store
	ks keys.Scheme
}

func (r *SuperuserRepository) IsSuperuser(ctx context.Context, userID string) (bool, error) {
	if err := requireID("user id", userID); err != nil {
		return false, err
	}
	return r.kv.SIsMember(ctx, r.ks.Superusers(), userID)
}

func (r *SuperuserRepository) AddSuperuser(ctx context.Context, userID string) error {
	if err := requireID("user id", userID); err != nil {
		return err
	}
	return r.kv.SAdd(ctx, r.ks.Superusers(), userID)
}

func (r *SuperuserRepository) RemoveSuperuser(ctx context.Context, userID string) error {
	if err := requireID("user id", userID); err != nil {
		return err
	}
	return r.kv.SRem(ctx, r.ks.Superusers(), userID)
}
