package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/hashcodec"
	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/model"
)

// UserRepository persists users in one hash per record plus a lower-cased
// email secondary index giving O(1) FindByEmail.
type UserRepository struct {
	kv  kv.Store
	ks  keys.Scheme
	log zerolog.Logger
}

// UserPatch is a partial update; nil fields are left unchanged.
type UserPatch struct {
	Email          *string
	Name           *string
	ExternalAuthID *string
}

func (r *UserRepository) encode(u *model.User) (map[string]string, error) {
	return hashcodec.Encode(map[string]any{
		"id":             u.ID,
		"email":          u.Email,
		"name":           u.Name,
		"externalAuthId": u.ExternalAuthID,
		"subscriptionId": u.SubscriptionID,
	})
}

func (r *UserRepository) decode(id string, fields map[string]string) *model.User {
	if fields["id"] == "" || fields["email"] == "" {
		r.log.Warn().Str("userId", id).Msg("user record fails shape validation, treating as absent")
		return nil
	}
	return &model.User{
		ID:             fields["id"],
		Email:          fields["email"],
		Name:           fields["name"],
		ExternalAuthID: fields["externalAuthId"],
		SubscriptionID: strPtrField(fields, "subscriptionId"),
	}
}

// Create writes a new user and claims its email in the secondary index.
// A caller-supplied id that already exists is a conflict, as is an email
// already claimed by another user (case-insensitively).
func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrInvalidArgument)
	}
	out := *u
	if out.ID == "" {
		out.ID = uuid.New().String()
	} else {
		exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindUser, out.ID))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &model.ConflictError{Resource: "user", Field: "id", Value: out.ID, ExistingID: out.ID}
		}
	}

	emailKey := r.ks.EmailIndex(out.Email)
	if claimedBy, ok, err := r.kv.Get(ctx, emailKey); err != nil {
		return nil, err
	} else if ok && claimedBy != out.ID {
		return nil, &model.ConflictError{Resource: "user", Field: "email", Value: strings.ToLower(out.Email), ExistingID: claimedBy}
	}

	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.HSet(r.ks.Entity(keys.KindUser, out.ID), fields)
	p.Set(emailKey, out.ID)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &out, nil
}

// Upsert creates or fully replaces a user depending on the explicit mode.
// ModeCreate fails if a caller-supplied id exists; ModeUpdate fails if the
// target does not.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User, mode model.WriteMode) (*model.User, error) {
	switch mode {
	case model.ModeCreate:
		return r.Create(ctx, u)
	case model.ModeUpdate:
		return r.replace(ctx, u)
	default:
		return nil, fmt.Errorf("%w: unknown write mode %d", model.ErrInvalidArgument, mode)
	}
}

// replace overwrites the whole record, moving the email index entry when the
// email changed. Old fields not present in the new record are cleared.
func (r *UserRepository) replace(ctx context.Context, u *model.User) (*model.User, error) {
	if err := requireID("user id", u.ID); err != nil {
		return nil, err
	}
	if u.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrInvalidArgument)
	}
	userKey := r.ks.Entity(keys.KindUser, u.ID)
	current, err := r.kv.HGetAll(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindUser, u.ID)
	}

	newEmailKey := r.ks.EmailIndex(u.Email)
	if claimedBy, ok, err := r.kv.Get(ctx, newEmailKey); err != nil {
		return nil, err
	} else if ok && claimedBy != u.ID {
		return nil, &model.ConflictError{Resource: "user", Field: "email", Value: strings.ToLower(u.Email), ExistingID: claimedBy}
	}

	out := *u
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	if old := current["email"]; old != "" && !strings.EqualFold(old, out.Email) {
		p.Del(r.ks.EmailIndex(old))
	}
	p.Del(userKey)
	p.HSet(userKey, fields)
	p.Set(newEmailKey, out.ID)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("replace user: %w", err)
	}
	return &out, nil
}

// Get returns nil without error when the id has no record.
func (r *UserRepository) Get(ctx context.Context, id string) (*model.User, error) {
	if err := requireID("user id", id); err != nil {
		return nil, err
	}
	fields, err := r.kv.HGetAll(ctx, r.ks.Entity(keys.KindUser, id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return r.decode(id, fields), nil
}

// FindByEmail resolves the lower-cased email index, then fetches the record.
// A dangling index entry is logged and treated as absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrInvalidArgument)
	}
	id, ok, err := r.kv.Get(ctx, r.ks.EmailIndex(email))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		r.log.Warn().Str("email", strings.ToLower(email)).Str("userId", id).Msg("email index points at missing user record")
	}
	return u, nil
}

// Update applies a partial update. Changing the email verifies the new value
// is unclaimed, then moves the index entry and the hash field in one batch.
func (r *UserRepository) Update(ctx context.Context, id string, patch UserPatch) (*model.User, error) {
	if err := requireID("user id", id); err != nil {
		return nil, err
	}
	userKey := r.ks.Entity(keys.KindUser, id)
	current, err := r.kv.HGetAll(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindUser, id)
	}

	fields := map[string]string{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.ExternalAuthID != nil {
		fields["externalAuthId"] = *patch.ExternalAuthID
	}

	p := r.kv.Pipeline()
	if patch.Email != nil && !strings.EqualFold(*patch.Email, current["email"]) {
		if *patch.Email == "" {
			return nil, fmt.Errorf("%w: email cannot be cleared", model.ErrInvalidArgument)
		}
		newEmailKey := r.ks.EmailIndex(*patch.Email)
		if claimedBy, ok, err := r.kv.Get(ctx, newEmailKey); err != nil {
			return nil, err
		} else if ok && claimedBy != id {
			return nil, &model.ConflictError{Resource: "user", Field: "email", Value: strings.ToLower(*patch.Email), ExistingID: claimedBy}
		}
		if old := current["email"]; old != "" {
			p.Del(r.ks.EmailIndex(old))
		}
		p.Set(newEmailKey, id)
		fields["email"] = *patch.Email
	} else if patch.Email != nil {
		// Case-only change: same index key, just rewrite the stored form.
		fields["email"] = *patch.Email
	}

	if len(fields) > 0 {
		p.HSet(userKey, fields)
	}
	if p.Len() > 0 {
		if err := p.Exec(ctx); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	for f, v := range fields {
		current[f] = v
	}
	return r.decode(id, current), nil
}

// SetSubscriptionID records the user's subscription pointer. A nil id removes
// the field entirely rather than writing a stringified null.
func (r *UserRepository) SetSubscriptionID(ctx context.Context, userID string, subscriptionID *string) error {
	if err := requireID("user id", userID); err != nil {
		return err
	}
	userKey := r.ks.Entity(keys.KindUser, userID)
	exists, err := r.kv.Exists(ctx, userKey)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(keys.KindUser, userID)
	}
	if subscriptionID == nil {
		return r.kv.HDel(ctx, userKey, "subscriptionId")
	}
	return r.kv.HSet(ctx, userKey, map[string]string{"subscriptionId": *subscriptionID})
}

// Delete removes the record and its email index entry. It does not cascade
// to the user's subscription; that is the caller's responsibility.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := requireID("user id", id); err != nil {
		return err
	}
	userKey := r.ks.Entity(keys.KindUser, id)
	current, err := r.kv.HGetAll(ctx, userKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindUser, id)
	}
	p := r.kv.Pipeline()
	p.Del(userKey)
	if email := current["email"]; email != "" {
		p.Del(r.ks.EmailIndex(email))
	}
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
