package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdesk/contentdesk/internal/model"
)

func TestCustomerCreateGrantsOwner(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := repos.Customers.Create(ctx, &model.Customer{
		Name:        "Acme",
		OwnerUserID: "owner-1",
		Industry:    "retail",
		AIContext:   map[string]any{"tone": "formal"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repos.Customers.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "owner-1", got.OwnerUserID)
	assert.Equal(t, map[string]any{"tone": "formal"}, got.AIContext)

	role, err := repos.Customers.GetPermissionForUser(ctx, created.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, role)

	access, err := repos.Customers.ListUserCustomers(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, access, 1)
	assert.Equal(t, created.ID, access[0].CustomerID)
	assert.Equal(t, model.RoleOwner, access[0].Role)
}

func TestCustomerCreateValidation(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Customers.Create(ctx, &model.Customer{OwnerUserID: "o"})
	assert.True(t, model.IsInvalidArgument(err))

	_, err = repos.Customers.Create(ctx, &model.Customer{Name: "No Owner"})
	assert.True(t, model.IsInvalidArgument(err))
}

func TestCustomerSetAndRemovePermission(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)

	require.NoError(t, repos.Customers.SetPermission(ctx, c.ID, "editor-1", model.RoleEditor))

	perms, err := repos.Customers.GetPermissions(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Role{"owner-1": model.RoleOwner, "editor-1": model.RoleEditor}, perms)

	// The grantee's access listing reflects the role score.
	access, err := repos.Customers.ListUserCustomers(ctx, "editor-1")
	require.NoError(t, err)
	require.Len(t, access, 1)
	assert.Equal(t, model.RoleEditor, access[0].Role)

	require.NoError(t, repos.Customers.RemovePermission(ctx, c.ID, "editor-1"))
	access, err = repos.Customers.ListUserCustomers(ctx, "editor-1")
	require.NoError(t, err)
	assert.Empty(t, access)

	role, err := repos.Customers.GetPermissionForUser(ctx, c.ID, "editor-1")
	require.NoError(t, err)
	assert.Equal(t, model.Role(""), role)
}

func TestCustomerPermissionGuards(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)

	// Unknown role is rejected.
	err = repos.Customers.SetPermission(ctx, c.ID, "u", model.Role("superadmin"))
	assert.True(t, model.IsInvalidArgument(err))

	// Demoting the current owner is rejected.
	err = repos.Customers.SetPermission(ctx, c.ID, "owner-1", model.RoleViewer)
	assert.True(t, model.IsInvalidArgument(err))

	// Granting the owner role to anyone else is rejected too; only SetOwner
	// may change ownership.
	err = repos.Customers.SetPermission(ctx, c.ID, "intruder", model.RoleOwner)
	assert.True(t, model.IsInvalidArgument(err))

	// Re-granting owner to the current owner is an allowed no-op.
	require.NoError(t, repos.Customers.SetPermission(ctx, c.ID, "owner-1", model.RoleOwner))

	// Removing the current owner is a silent no-op.
	require.NoError(t, repos.Customers.RemovePermission(ctx, c.ID, "owner-1"))
	role, err := repos.Customers.GetPermissionForUser(ctx, c.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, role)

	// Mutations on a missing customer are NotFound.
	err = repos.Customers.SetPermission(ctx, "no-such", "u", model.RoleViewer)
	assert.True(t, model.IsNotFound(err))
	err = repos.Customers.RemovePermission(ctx, "no-such", "u")
	assert.True(t, model.IsNotFound(err))
}

func TestCustomerSingleOwnerEntry(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)
	require.NoError(t, repos.Customers.SetPermission(ctx, c.ID, "editor-1", model.RoleEditor))

	err = repos.Customers.SetPermission(ctx, c.ID, "editor-1", model.RoleOwner)
	assert.True(t, model.IsInvalidArgument(err))

	// The permission map still holds exactly one owner entry, matching the
	// record's ownerUserId.
	perms, err := repos.Customers.GetPermissions(ctx, c.ID)
	require.NoError(t, err)
	owners := []string{}
	for userID, role := range perms {
		if role == model.RoleOwner {
			owners = append(owners, userID)
		}
	}
	require.Len(t, owners, 1)
	got, err := repos.Customers.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, got.OwnerUserID, owners[0])
}

func TestCustomerOwnershipTransfer(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)
	require.NoError(t, repos.Customers.SetPermission(ctx, c.ID, "admin-1", model.RoleAdmin))

	require.NoError(t, repos.Customers.SetOwner(ctx, c.ID, "admin-1"))

	// Exactly one owner entry afterwards; the old owner lost all access.
	got, err := repos.Customers.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.OwnerUserID)

	perms, err := repos.Customers.GetPermissions(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Role{"admin-1": model.RoleOwner}, perms)

	oldAccess, err := repos.Customers.ListUserCustomers(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, oldAccess)

	newAccess, err := repos.Customers.ListUserCustomers(ctx, "admin-1")
	require.NoError(t, err)
	require.Len(t, newAccess, 1)
	assert.Equal(t, model.RoleOwner, newAccess[0].Role)

	// Transferring to the current owner is idempotent.
	require.NoError(t, repos.Customers.SetOwner(ctx, c.ID, "admin-1"))
	perms, err = repos.Customers.GetPermissions(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
}

func TestCustomerUpsertRejectsOwnerChange(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)

	_, err = repos.Customers.Upsert(ctx, &model.Customer{ID: c.ID, Name: "Acme2", OwnerUserID: "intruder"}, model.ModeUpdate)
	assert.True(t, model.IsInvalidArgument(err))

	// Replacement without an owner field keeps the current owner.
	replaced, err := repos.Customers.Upsert(ctx, &model.Customer{ID: c.ID, Name: "Acme2"}, model.ModeUpdate)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", replaced.OwnerUserID)
	assert.Equal(t, "Acme2", replaced.Name)
}

func TestCustomerListOrderedByRole(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	owned, err := repos.Customers.Create(ctx, &model.Customer{Name: "Owned", OwnerUserID: "u1"})
	require.NoError(t, err)
	viewed, err := repos.Customers.Create(ctx, &model.Customer{Name: "Viewed", OwnerUserID: "other"})
	require.NoError(t, err)
	edited, err := repos.Customers.Create(ctx, &model.Customer{Name: "Edited", OwnerUserID: "other"})
	require.NoError(t, err)

	require.NoError(t, repos.Customers.SetPermission(ctx, viewed.ID, "u1", model.RoleViewer))
	require.NoError(t, repos.Customers.SetPermission(ctx, edited.ID, "u1", model.RoleEditor))

	access, err := repos.Customers.ListUserCustomers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, access, 3)
	assert.Equal(t, owned.ID, access[0].CustomerID)
	assert.Equal(t, edited.ID, access[1].CustomerID)
	assert.Equal(t, viewed.ID, access[2].CustomerID)

	details, err := repos.Customers.ListUserCustomersWithDetails(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, "Owned", details[0].Name)
	assert.Equal(t, model.RoleOwner, details[0].Role)
}

func TestCustomerListSkipsDanglingEntries(t *testing.T) {
	repos, st := newTestRepos(t)
	ctx := context.Background()

	kept, err := repos.Customers.Create(ctx, &model.Customer{Name: "Kept", OwnerUserID: "u1"})
	require.NoError(t, err)
	doomed, err := repos.Customers.Create(ctx, &model.Customer{Name: "Doomed", OwnerUserID: "u1"})
	require.NoError(t, err)

	// Drop the record but leave the access entry behind.
	require.NoError(t, st.Del(ctx, "test:customer:"+doomed.ID))

	details, err := repos.Customers.ListUserCustomersWithDetails(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, kept.ID, details[0].ID)
}

func TestCustomerPermissionsFilterCorruptRole(t *testing.T) {
	repos, st := newTestRepos(t)
	ctx := context.Background()

	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)

	// Corrupt a permission entry directly.
	require.NoError(t, st.HSet(ctx, "test:customer:"+c.ID+":permissions", map[string]string{"weird": "demigod"}))

	perms, err := repos.Customers.GetPermissions(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Role{"owner-1": model.RoleOwner}, perms)

	role, err := repos.Customers.GetPermissionForUser(ctx, c.ID, "weird")
	require.NoError(t, err)
	assert.Equal(t, model.Role(""), role)
}

func TestCustomerDeleteCleansAccessIndexes(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)
	require.NoError(t, repos.Customers.SetPermission(ctx, c.ID, "viewer-1", model.RoleViewer))

	require.NoError(t, repos.Customers.Delete(ctx, c.ID))

	got, err := repos.Customers.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, user := range []string{"owner-1", "viewer-1"} {
		access, err := repos.Customers.ListUserCustomers(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, access, "user %s should have no access entries left", user)
	}

	err = repos.Customers.Delete(ctx, c.ID)
	assert.True(t, model.IsNotFound(err))
}

func TestCustomerScanByOwner(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Customers.Create(ctx, &model.Customer{Name: "Mine", OwnerUserID: "u1"})
	require.NoError(t, err)
	_, err = repos.Customers.Create(ctx, &model.Customer{Name: "Theirs", OwnerUserID: "u2"})
	require.NoError(t, err)

	mine, err := repos.Customers.ScanByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)
}
