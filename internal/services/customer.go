package services

import (
	"context"
	"fmt"

	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
)

// CustomerService handles customer workspaces and their permission graph.
type CustomerService struct {
	repos *repository.Repositories
}

func NewCustomerService(r *repository.Repositories) *CustomerService {
	return &CustomerService{repos: r}
}

// CreateCustomer verifies the owning user exists before handing off to the
// repository, which grants the owner permission and access-set entry.
func (s *CustomerService) CreateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	u, err := s.repos.Users.Get(ctx, c.OwnerUserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", c.OwnerUserID, model.ErrNotFound)
	}
	return s.repos.Customers.Create(ctx, c)
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	return s.repos.Customers.Get(ctx, id)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, patch repository.CustomerPatch) (*model.Customer, error) {
	return s.repos.Customers.Update(ctx, id, patch)
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) error {
	return s.repos.Customers.Delete(ctx, id)
}

func (s *CustomerService) GetPermissions(ctx context.Context, customerID string) (map[string]model.Role, error) {
	return s.repos.Customers.GetPermissions(ctx, customerID)
}

func (s *CustomerService) GetPermissionForUser(ctx context.Context, customerID, userID string) (model.Role, error) {
	return s.repos.Customers.GetPermissionForUser(ctx, customerID, userID)
}

// SetPermission verifies the grantee exists, then delegates.
func (s *CustomerService) SetPermission(ctx context.Context, customerID, userID string, role model.Role) error {
	u, err := s.repos.Users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s: %w", userID, model.ErrNotFound)
	}
	return s.repos.Customers.SetPermission(ctx, customerID, userID, role)
}

func (s *CustomerService) RemovePermission(ctx context.Context, customerID, userID string) error {
	return s.repos.Customers.RemovePermission(ctx, customerID, userID)
}

// TransferOwnership verifies the new owner exists, then performs the atomic
// owner swap in the repository.
func (s *CustomerService) TransferOwnership(ctx context.Context, customerID, newOwnerUserID string) error {
	u, err := s.repos.Users.Get(ctx, newOwnerUserID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s: %w", newOwnerUserID, model.ErrNotFound)
	}
	return s.repos.Customers.SetOwner(ctx, customerID, newOwnerUserID)
}

func (s *CustomerService) ListUserCustomers(ctx context.Context, userID string) ([]model.CustomerAccess, error) {
	return s.repos.Customers.ListUserCustomers(ctx, userID)
}

func (s *CustomerService) ListUserCustomersWithDetails(ctx context.Context, userID string) ([]model.CustomerWithRole, error) {
	return s.repos.Customers.ListUserCustomersWithDetails(ctx, userID)
}
