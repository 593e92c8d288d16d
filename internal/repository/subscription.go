package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/hashcodec"
	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/model"
)

// SubscriptionRepository persists subscriptions with a userId reverse index
// enforcing at most one subscription per user.
type SubscriptionRepository struct {
	kv  kv.Store
	ks  keys.Scheme
	log zerolog.Logger
}

// SubscriptionPatch is a partial update; the owning user is immutable.
type SubscriptionPatch struct {
	PlanType *string
	Status   *string
}

func (r *SubscriptionRepository) encode(s *model.Subscription) (map[string]string, error) {
	return hashcodec.Encode(map[string]any{
		"id":       s.ID,
		"userId":   s.UserID,
		"planType": s.PlanType,
		"status":   s.Status,
	})
}

func (r *SubscriptionRepository) decode(id string, fields map[string]string) *model.Subscription {
	if fields["id"] == "" || fields["userId"] == "" {
		r.log.Warn().Str("subscriptionId", id).Msg("subscription record fails shape validation, treating as absent")
		return nil
	}
	return &model.Subscription{
		ID:       fields["id"],
		UserID:   fields["userId"],
		PlanType: fields["planType"],
		Status:   fields["status"],
	}
}

// Create writes a new subscription and claims the user in the reverse index.
// A user that already holds a subscription is a conflict carrying the
// existing subscription id.
func (r *SubscriptionRepository) Create(ctx context.Context, s *model.Subscription) (*model.Subscription, error) {
	if err := requireID("user id", s.UserID); err != nil {
		return nil, err
	}
	out := *s
	if out.ID == "" {
		out.ID = uuid.New().String()
	} else {
		exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindSubscription, out.ID))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &model.ConflictError{Resource: "subscription", Field: "id", Value: out.ID, ExistingID: out.ID}
		}
	}

	indexKey := r.ks.SubscriptionByUser(out.UserID)
	if existing, ok, err := r.kv.Get(ctx, indexKey); err != nil {
		return nil, err
	} else if ok {
		return nil, &model.ConflictError{Resource: "subscription", Field: "userId", Value: out.UserID, ExistingID: existing}
	}

	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.HSet(r.ks.Entity(keys.KindSubscription, out.ID), fields)
	p.Set(indexKey, out.ID)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return &out, nil
}

// Get returns nil without error when the id has no record.
func (r *SubscriptionRepository) Get(ctx context.Context, id string) (*model.Subscription, error) {
	if err := requireID("subscription id", id); err != nil {
		return nil, err
	}
	fields, err := r.kv.HGetAll(ctx, r.ks.Entity(keys.KindSubscription, id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return r.decode(id, fields), nil
}

// FindByUserID is an index lookup followed by a primary fetch; absent means
// nil, not an error.
func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}
	id, ok, err := r.kv.Get(ctx, r.ks.SubscriptionByUser(userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	s, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		r.log.Warn().Str("userId", userID).Str("subscriptionId", id).Msg("subscription index points at missing record")
	}
	return s, nil
}

// Update applies a partial update to plan and status.
func (r *SubscriptionRepository) Update(ctx context.Context, id string, patch SubscriptionPatch) (*model.Subscription, error) {
	if err := requireID("subscription id", id); err != nil {
		return nil, err
	}
	subKey := r.ks.Entity(keys.KindSubscription, id)
	current, err := r.kv.HGetAll(ctx, subKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindSubscription, id)
	}
	fields := map[string]string{}
	if patch.PlanType != nil {
		fields["planType"] = *patch.PlanType
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if len(fields) > 0 {
		if err := r.kv.HSet(ctx, subKey, fields); err != nil {
			return nil, fmt.Errorf("update subscription: %w", err)
		}
	}
	for f, v := range fields {
		current[f] = v
	}
	return r.decode(id, current), nil
}

// Delete removes the record and the user index entry. The user's own
// subscriptionId field must be cleared separately by the caller.
func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	if err := requireID("subscription id", id); err != nil {
		return err
	}
	subKey := r.ks.Entity(keys.KindSubscription, id)
	current, err := r.kv.HGetAll(ctx, subKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindSubscription, id)
	}
	p := r.kv.Pipeline()
	p.Del(subKey)
	if userID := current["userId"]; userID != "" {
		p.Del(r.ks.SubscriptionByUser(userID))
	}
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
