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

// CustomerRepository persists customers plus their role-permission hash, the
// project membership set, and the per-user sorted set of accessible customers
// scored by role priority. The sorted set is the primary path for "which
// customers can this user see"; scanning is maintenance-only.
type CustomerRepository struct {
	kv  kv.Store
	ks  keys.Scheme
	log zerolog.Logger
}

// CustomerPatch is a partial update; nil fields are left unchanged. Ownership
// is not part of the patch surface; transfers go through SetOwner.
type CustomerPatch struct {
	Name      *string
	Industry  *string
	AIContext map[string]any
}

func (r *CustomerRepository) encode(c *model.Customer) (map[string]string, error) {
	attrs := map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"ownerUserId": c.OwnerUserID,
		"industry":    c.Industry,
	}
	if c.AIContext != nil {
		attrs["aiContext"] = c.AIContext
	}
	return hashcodec.Encode(attrs)
}

func (r *CustomerRepository) decode(id string, fields map[string]string) *model.Customer {
	if fields["id"] == "" || fields["ownerUserId"] == "" {
		r.log.Warn().Str("customerId", id).Msg("customer record fails shape validation, treating as absent")
		return nil
	}
	return &model.Customer{
		ID:          fields["id"],
		Name:        fields["name"],
		OwnerUserID: fields["ownerUserId"],
		Industry:    fields["industry"],
		AIContext:   hashcodec.MapField(fields, "aiContext"),
	}
}

// Create writes the record, grants the owner's permission entry, and scores
// the customer into the owner's access sorted set, all in one batch.
func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidArgument)
	}
	if err := requireID("owner user id", c.OwnerUserID); err != nil {
		return nil, err
	}
	out := *c
	if out.ID == "" {
		out.ID = uuid.New().String()
	} else {
		exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindCustomer, out.ID))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &model.ConflictError{Resource: "customer", Field: "id", Value: out.ID, ExistingID: out.ID}
		}
	}

	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.HSet(r.ks.Entity(keys.KindCustomer, out.ID), fields)
	p.HSet(r.ks.Relation(keys.KindCustomer, out.ID, keys.RelPermissions), map[string]string{out.OwnerUserID: string(model.RoleOwner)})
	p.ZAdd(r.ks.UserCustomers(out.OwnerUserID), kv.ZMember{Member: out.ID, Score: model.RoleOwner.Priority()})
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &out, nil
}

// Upsert creates or replaces depending on the explicit mode. ModeUpdate
// replaces the main record but leaves permissions, project membership and
// ownership untouched; an owner change through Upsert is rejected.
func (r *CustomerRepository) Upsert(ctx context.Context, c *model.Customer, mode model.WriteMode) (*model.Customer, error) {
	switch mode {
	case model.ModeCreate:
		return r.Create(ctx, c)
	case model.ModeUpdate:
	default:
		return nil, fmt.Errorf("%w: unknown write mode %d", model.ErrInvalidArgument, mode)
	}
	if err := requireID("customer id", c.ID); err != nil {
		return nil, err
	}
	custKey := r.ks.Entity(keys.KindCustomer, c.ID)
	current, err := r.kv.HGetAll(ctx, custKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindCustomer, c.ID)
	}
	if c.OwnerUserID != "" && c.OwnerUserID != current["ownerUserId"] {
		return nil, fmt.Errorf("%w: ownership transfer must go through SetOwner", model.ErrInvalidArgument)
	}
	out := *c
	out.OwnerUserID = current["ownerUserId"]
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.Del(custKey)
	p.HSet(custKey, fields)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("replace customer: %w", err)
	}
	return &out, nil
}

// Get returns nil without error when the id has no record.
func (r *CustomerRepository) Get(ctx context.Context, id string) (*model.Customer, error) {
	if err := requireID("customer id", id); err != nil {
		return nil, err
	}
	fields, err := r.kv.HGetAll(ctx, r.ks.Entity(keys.KindCustomer, id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return r.decode(id, fields), nil
}

// Update applies a partial update to name, industry and aiContext.
func (r *CustomerRepository) Update(ctx context.Context, id string, patch CustomerPatch) (*model.Customer, error) {
	if err := requireID("customer id", id); err != nil {
		return nil, err
	}
	custKey := r.ks.Entity(keys.KindCustomer, id)
	current, err := r.kv.HGetAll(ctx, custKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindCustomer, id)
	}
	attrs := map[string]any{}
	if patch.Name != nil {
		attrs["name"] = *patch.Name
	}
	if patch.Industry != nil {
		attrs["industry"] = *patch.Industry
	}
	if patch.AIContext != nil {
		attrs["aiContext"] = patch.AIContext
	}
	fields, err := hashcodec.Encode(attrs)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := r.kv.HSet(ctx, custKey, fields); err != nil {
			return nil, fmt.Errorf("update customer: %w", err)
		}
	}
	for f, v := range fields {
		current[f] = v
	}
	return r.decode(id, current), nil
}

// Delete removes the record, its permission hash and project set, and drops
// the customer from every permitted user's access sorted set.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	if err := requireID("customer id", id); err != nil {
		return err
	}
	custKey := r.ks.Entity(keys.KindCustomer, id)
	exists, err := r.kv.Exists(ctx, custKey)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(keys.KindCustomer, id)
	}
	permsKey := r.ks.Relation(keys.KindCustomer, id, keys.RelPermissions)
	perms, err := r.kv.HGetAll(ctx, permsKey)
	if err != nil {
		return err
	}
	p := r.kv.Pipeline()
	p.Del(custKey, permsKey, r.ks.Relation(keys.KindCustomer, id, keys.RelProjects))
	for userID := range perms {
		p.ZRem(r.ks.UserCustomers(userID), id)
	}
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

// --- Permissions ---

// GetPermissions returns the userId→role map. Stored roles outside the
// closed enum are logged and filtered out rather than failing the read.
func (r *CustomerRepository) GetPermissions(ctx context.Context, customerID string) (map[string]model.Role, error) {
	if err := requireID("customer id", customerID); err != nil {
		return nil, err
	}
	raw, err := r.kv.HGetAll(ctx, r.ks.Relation(keys.KindCustomer, customerID, keys.RelPermissions))
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Role, len(raw))
	for userID, roleStr := range raw {
		role := model.Role(roleStr)
		if !role.Valid() {
			r.log.Warn().Str("customerId", customerID).Str("userId", userID).Str("role", roleStr).Msg("skipping permission entry with unknown role")
			continue
		}
		out[userID] = role
	}
	return out, nil
}

// GetPermissionForUser returns "" when the user has no (valid) permission.
func (r *CustomerRepository) GetPermissionForUser(ctx context.Context, customerID, userID string) (model.Role, error) {
	if err := requireID("customer id", customerID); err != nil {
		return "", err
	}
	if err := requireID("user id", userID); err != nil {
		return "", err
	}
	roleStr, ok, err := r.kv.HGet(ctx, r.ks.Relation(keys.KindCustomer, customerID, keys.RelPermissions), userID)
	if err != nil || !ok {
		return "", err
	}
	role := model.Role(roleStr)
	if !role.Valid() {
		r.log.Warn().Str("customerId", customerID).Str("userId", userID).Str("role", roleStr).Msg("stored permission has unknown role")
		return "", nil
	}
	return role, nil
}

// SetPermission grants or changes a user's role and rescores the user's
// access sorted set in the same batch. The owner role is off-limits both
// ways: demoting the current owner and granting "owner" to anyone else are
// rejected, keeping exactly one owner entry per customer. Ownership
// transfer goes through SetOwner.
func (r *CustomerRepository) SetPermission(ctx context.Context, customerID, userID string, role model.Role) error {
	if err := requireID("customer id", customerID); err != nil {
		return err
	}
	if err := requireID("user id", userID); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", model.ErrInvalidArgument, role)
	}
	owner, err := r.GetOwnerUserID(ctx, customerID)
	if err != nil {
		return err
	}
	if owner == "" {
		return notFound(keys.KindCustomer, customerID)
	}
	if userID == owner && role != model.RoleOwner {
		return fmt.Errorf("%w: cannot demote the current owner, use SetOwner", model.ErrInvalidArgument)
	}
	if userID != owner && role == model.RoleOwner {
		return fmt.Errorf("%w: cannot grant the owner role, use SetOwner", model.ErrInvalidArgument)
	}
	p := r.kv.Pipeline()
	p.HSet(r.ks.Relation(keys.KindCustomer, customerID, keys.RelPermissions), map[string]string{userID: string(role)})
	p.ZAdd(r.ks.UserCustomers(userID), kv.ZMember{Member: customerID, Score: role.Priority()})
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("set permission: %w", err)
	}
	return nil
}

// RemovePermission revokes a user's access. The customer must exist.
// Removing the current owner is a silent no-op: every customer keeps exactly
// one owner entry, and transfers go through SetOwner.
func (r *CustomerRepository) RemovePermission(ctx context.Context, customerID, userID string) error {
	if err := requireID("customer id", customerID); err != nil {
		return err
	}
	if err := requireID("user id", userID); err != nil {
		return err
	}
	owner, err := r.GetOwnerUserID(ctx, customerID)
	if err != nil {
		return err
	}
	if owner == "" {
		return notFound(keys.KindCustomer, customerID)
	}
	if userID == owner {
		return nil
	}
	p := r.kv.Pipeline()
	p.HDel(r.ks.Relation(keys.KindCustomer, customerID, keys.RelPermissions), userID)
	p.ZRem(r.ks.UserCustomers(userID), customerID)
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	return nil
}

// SetOwner transfers ownership as one batch: the ownerUserId field, the new
// owner's permission entry, removal of the previous owner's entry, and both
// users' access sorted sets. A mid-batch failure can leave a detectable
// inconsistency (stale ownerUserId without a matching owner entry); that is
// the documented best-effort-atomicity risk of the store.
func (r *CustomerRepository) SetOwner(ctx context.Context, customerID, newOwnerUserID string) error {
	if err := requireID("customer id", customerID); err != nil {
		return err
	}
	if err := requireID("new owner user id", newOwnerUserID); err != nil {
		return err
	}
	custKey := r.ks.Entity(keys.KindCustomer, customerID)
	current, err := r.kv.HGetAll(ctx, custKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindCustomer, customerID)
	}
	oldOwner := current["ownerUserId"]

	permsKey := r.ks.Relation(keys.KindCustomer, customerID, keys.RelPermissions)
	p := r.kv.Pipeline()
	p.HSet(custKey, map[string]string{"ownerUserId": newOwnerUserID})
	p.HSet(permsKey, map[string]string{newOwnerUserID: string(model.RoleOwner)})
	p.ZAdd(r.ks.UserCustomers(newOwnerUserID), kv.ZMember{Member: customerID, Score: model.RoleOwner.Priority()})
	if oldOwner != "" && oldOwner != newOwnerUserID {
		p.HDel(permsKey, oldOwner)
		p.ZRem(r.ks.UserCustomers(oldOwner), customerID)
	}
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	return nil
}

// GetOwnerUserID returns "" when the customer does not exist.
func (r *CustomerRepository) GetOwnerUserID(ctx context.Context, customerID string) (string, error) {
	if err := requireID("customer id", customerID); err != nil {
		return "", err
	}
	owner, _, err := r.kv.HGet(ctx, r.ks.Entity(keys.KindCustomer, customerID), "ownerUserId")
	return owner, err
}

// --- Project membership ---

// AddProject registers the project in the customer's membership set and
// points the project back at the customer, both sides in one batch.
func (r *CustomerRepository) AddProject(ctx context.Context, customerID, projectID string) error {
	if err := requireID("customer id", customerID); err != nil {
		return err
	}
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindCustomer, customerID)); err != nil {
		return err
	} else if !exists {
		return notFound(keys.KindCustomer, customerID)
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindProject, projectID)); err != nil {
		return err
	} else if !exists {
		return notFound(keys.KindProject, projectID)
	}
	p := r.kv.Pipeline()
	p.SAdd(r.ks.Relation(keys.KindCustomer, customerID, keys.RelProjects), projectID)
	p.HSet(r.ks.Entity(keys.KindProject, projectID), map[string]string{"customerId": customerID})
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("add project: %w", err)
	}
	return nil
}

// RemoveProject drops the membership edge from both sides. Removing a
// project that is not a member is a no-op.
func (r *CustomerRepository) RemoveProject(ctx context.Context, customerID, projectID string) error {
	if err := requireID("customer id", customerID); err != nil {
		return err
	}
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	p := r.kv.Pipeline()
	p.SRem(r.ks.Relation(keys.KindCustomer, customerID, keys.RelProjects), projectID)
	p.HDel(r.ks.Entity(keys.KindProject, projectID), "customerId")
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("remove project: %w", err)
	}
	return nil
}

// GetProjectIDs lists the customer's project membership set.
func (r *CustomerRepository) GetProjectIDs(ctx context.Context, customerID string) ([]string, error) {
	if err := requireID("customer id", customerID); err != nil {
		return nil, err
	}
	return r.kv.SMembers(ctx, r.ks.Relation(keys.KindCustomer, customerID, keys.RelProjects))
}

// --- Access listings ---

// ListUserCustomers returns the customers a user can access, highest role
// first, straight from the role-scored sorted set. No scan involved.
func (r *CustomerRepository) ListUserCustomers(ctx context.Context, userID string) ([]model.CustomerAccess, error) {
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}
	members, err := r.kv.ZRevRangeWithScores(ctx, r.ks.UserCustomers(userID), 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]model.CustomerAccess, 0, len(members))
	for _, m := range members {
		role := model.RoleFromPriority(m.Score)
		if role == "" {
			r.log.Warn().Str("userId", userID).Str("customerId", m.Member).Float64("score", m.Score).Msg("skipping access entry with unknown role score")
			continue
		}
		out = append(out, model.CustomerAccess{CustomerID: m.Member, Role: role})
	}
	return out, nil
}

// ListUserCustomersWithDetails resolves the access listing to full records.
// Dangling index entries are logged and skipped.
func (r *CustomerRepository) ListUserCustomersWithDetails(ctx context.Context, userID string) ([]model.CustomerWithRole, error) {
	access, err := r.ListUserCustomers(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.CustomerWithRole, 0, len(access))
	for _, a := range access {
		c, err := r.Get(ctx, a.CustomerID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			r.log.Warn().Str("userId", userID).Str("customerId", a.CustomerID).Msg("access index points at missing customer record")
			continue
		}
		out = append(out, model.CustomerWithRole{Customer: *c, Role: a.Role})
	}
	return out, nil
}

// ScanByOwner enumerates all customer keys and filters by owner field.
// O(n) in total customers and blind to shared access; kept only as a
// maintenance and backfill tool for the sorted-set index.
func (r *CustomerRepository) ScanByOwner(ctx context.Context, ownerUserID string) ([]model.Customer, error) {
	if err := requireID("owner user id", ownerUserID); err != nil {
		return nil, err
	}
	keyList, err := r.kv.Scan(ctx, r.ks.EntityPattern(keys.KindCustomer))
	if err != nil {
		return nil, err
	}
	var out []model.Customer
	for _, key := range keyList {
		id, ok := r.ks.ParseEntityID(keys.KindCustomer, key)
		if !ok {
			continue
		}
		c, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil && c.OwnerUserID == ownerUserID {
			out = append(out, *c)
		}
	}
	return out, nil
}
