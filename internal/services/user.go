package services

import (
	"context"
	"fmt"

	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
)

// UserService handles user and subscription operations, keeping the
// user↔subscription edge consistent across the two repositories.
type UserService struct {
	repos *repository.Repositories
}

func NewUserService(r *repository.Repositories) *UserService { return &UserService{repos: r} }

func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	return s.repos.Users.Create(ctx, u)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.repos.Users.Get(ctx, userID)
}

func (s *UserService) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repos.Users.FindByEmail(ctx, email)
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, patch repository.UserPatch) (*model.User, error) {
	return s.repos.Users.Update(ctx, userID, patch)
}

// DeleteUser removes the user and, when present, its subscription. The
// repositories do not cascade; the edge is closed here.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	sub, err := s.repos.Subscriptions.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if sub != nil {
		if err := s.repos.Subscriptions.Delete(ctx, sub.ID); err != nil {
			return fmt.Errorf("delete subscription for user %s: %w", userID, err)
		}
	}
	return s.repos.Users.Delete(ctx, userID)
}

// CreateSubscription creates the subscription and points the user at it.
// The user must exist; duplicate subscriptions surface as conflicts from the
// repository's reverse index.
func (s *UserService) CreateSubscription(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	u, err := s.repos.Users.Get(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", sub.UserID, model.ErrNotFound)
	}
	created, err := s.repos.Subscriptions.Create(ctx, sub)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Users.SetSubscriptionID(ctx, created.UserID, &created.ID); err != nil {
		return nil, fmt.Errorf("link subscription %s to user %s: %w", created.ID, created.UserID, err)
	}
	return created, nil
}

func (s *UserService) GetSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	return s.repos.Subscriptions.Get(ctx, id)
}

func (s *UserService) FindSubscriptionByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	return s.repos.Subscriptions.FindByUserID(ctx, userID)
}

// CancelSubscription deletes the subscription and clears the user's pointer.
func (s *UserService) CancelSubscription(ctx context.Context, subscriptionID string) error {
	sub, err := s.repos.Subscriptions.Get(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("subscription %s: %w", subscriptionID, model.ErrNotFound)
	}
	if err := s.repos.Subscriptions.Delete(ctx, sub.ID); err != nil {
		return err
	}
	return s.repos.Users.SetSubscriptionID(ctx, sub.UserID, nil)
}

// IsSuperuser reports global admin membership.
func (s *UserService) IsSuperuser(ctx context.Context, userID string) (bool, error) {
	return s.repos.Superusers.IsSuperuser(ctx, userID)
}
