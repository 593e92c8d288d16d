package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/hashcodec"
	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/kv"
)

// ProjectRepository persists projects plus their conversation and post
// membership sets. Every relationship mutation updates both the parent-side
// set and the child-side pointer in one batch.
type ProjectRepository struct {
	kv  kv.Store
	ks  keys.Scheme
	log zerolog.Logger
}

// ProjectPatch is a partial update; nil fields are left unchanged. The owning
// customer is not part of the patch surface; moves go through SetCustomer.
type ProjectPatch struct {
	Name      *string
	Objective *string
	AIContext map[string]any
}

func (r *ProjectRepository) encode(p *model.Project) (map[string]string, error) {
	attrs := map[string]any{
		"id":         p.ID,
		"name":       p.Name,
		"customerId": p.CustomerID,
		"objective":  p.Objective,
	}
	if p.AIContext != nil {
		attrs["aiContext"] = p.AIContext
	}
	return hashcodec.Encode(attrs)
}

func (r *ProjectRepository) decode(id string, fields map[string]string) *model.Project {
	if fields["id"] == "" {
		r.log.Warn().Str("projectId", id).Msg("project record fails shape validation, treating as absent")
		return nil
	}
	return &model.Project{
		ID:         fields["id"],
		Name:       fields["name"],
		CustomerID: fields["customerId"],
		Objective:  fields["objective"],
		AIContext:  hashcodec.MapField(fields, "aiContext"),
	}
}

// Create writes the record and registers it in the owning customer's project
// set in one batch. The customer must exist.
func (r *ProjectRepository) Create(ctx context.Context, pr *model.Project) (*model.Project, error) {
	if pr.Name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidArgument)
	}
	if err := requireID("customer id", pr.CustomerID); err != nil {
		return nil, err
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindCustomer, pr.CustomerID)); err != nil {
		return nil, err
	} else if !exists {
		return nil, notFound(keys.KindCustomer, pr.CustomerID)
	}
	out := *pr
	if out.ID == "" {
		out.ID = uuid.New().String()
	} else {
		exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindProject, out.ID))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &model.ConflictError{Resource: "project", Field: "id", Value: out.ID, ExistingID: out.ID}
		}
	}
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.HSet(r.ks.Entity(keys.KindProject, out.ID), fields)
	p.SAdd(r.ks.Relation(keys.KindCustomer, out.CustomerID, keys.RelProjects), out.ID)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &out, nil
}

// Upsert creates or replaces depending on the explicit mode. ModeUpdate
// replaces the record's own fields; moving it between customers goes through
// SetCustomer.
func (r *ProjectRepository) Upsert(ctx context.Context, pr *model.Project, mode model.WriteMode) (*model.Project, error) {
	switch mode {
	case model.ModeCreate:
		return r.Create(ctx, pr)
	case model.ModeUpdate:
	default:
		return nil, fmt.Errorf("%w: unknown write mode %d", model.ErrInvalidArgument, mode)
	}
	if err := requireID("project id", pr.ID); err != nil {
		return nil, err
	}
	projKey := r.ks.Entity(keys.KindProject, pr.ID)
	current, err := r.kv.HGetAll(ctx, projKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindProject, pr.ID)
	}
	if pr.CustomerID != "" && pr.CustomerID != current["customerId"] {
		return nil, fmt.Errorf("%w: moving a project must go through SetCustomer", model.ErrInvalidArgument)
	}
	out := *pr
	out.CustomerID = current["customerId"]
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.Del(projKey)
	p.HSet(projKey, fields)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("replace project: %w", err)
	}
	return &out, nil
}

// Get returns nil without error when the id has no record.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*model.Project, error) {
	if err := requireID("project id", id); err != nil {
		return nil, err
	}
	fields, err := r.kv.HGetAll(ctx, r.ks.Entity(keys.KindProject, id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return r.decode(id, fields), nil
}

// Update applies a partial update to name, objective and aiContext.
func (r *ProjectRepository) Update(ctx context.Context, id string, patch ProjectPatch) (*model.Project, error) {
	if err := requireID("project id", id); err != nil {
		return nil, err
	}
	projKey := r.ks.Entity(keys.KindProject, id)
	current, err := r.kv.HGetAll(ctx, projKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindProject, id)
	}
	attrs := map[string]any{}
	if patch.Name != nil {
		attrs["name"] = *patch.Name
	}
	if patch.Objective != nil {
		attrs["objective"] = *patch.Objective
	}
	if patch.AIContext != nil {
		attrs["aiContext"] = patch.AIContext
	}
	fields, err := hashcodec.Encode(attrs)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := r.kv.HSet(ctx, projKey, fields); err != nil {
			return nil, fmt.Errorf("update project: %w", err)
		}
	}
	for f, v := range fields {
		current[f] = v
	}
	return r.decode(id, current), nil
}

// UpdateBasicInfo rewrites name and objective in one call.
func (r *ProjectRepository) UpdateBasicInfo(ctx context.Context, id, name, objective string) (*model.Project, error) {
	return r.Update(ctx, id, ProjectPatch{Name: &name, Objective: &objective})
}

// UpdateAIContext replaces the opaque aiContext map. The repository preserves
// it byte-for-byte through the JSON round trip; no interpretation.
func (r *ProjectRepository) UpdateAIContext(ctx context.Context, id string, aiContext map[string]any) error {
	_, err := r.Update(ctx, id, ProjectPatch{AIContext: aiContext})
	return err
}

// GetAIContext returns nil when the project is missing or has no context.
func (r *ProjectRepository) GetAIContext(ctx context.Context, id string) (map[string]any, error) {
	pr, err := r.Get(ctx, id)
	if err != nil || pr == nil {
		return nil, err
	}
	return pr.AIContext, nil
}

// SetCustomer moves the project between customers: child pointer, old
// parent's set, and new parent's set all in one batch.
func (r *ProjectRepository) SetCustomer(ctx context.Context, projectID, customerID string) error {
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	if err := requireID("customer id", customerID); err != nil {
		return err
	}
	projKey := r.ks.Entity(keys.KindProject, projectID)
	current, err := r.kv.HGetAll(ctx, projKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindProject, projectID)
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindCustomer, customerID)); err != nil {
		return err
	} else if !exists {
		return notFound(keys.KindCustomer, customerID)
	}
	old := current["customerId"]
	p := r.kv.Pipeline()
	p.HSet(projKey, map[string]string{"customerId": customerID})
	if old != "" && old != customerID {
		p.SRem(r.ks.Relation(keys.KindCustomer, old, keys.RelProjects), projectID)
	}
	p.SAdd(r.ks.Relation(keys.KindCustomer, customerID, keys.RelProjects), projectID)
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("set customer: %w", err)
	}
	return nil
}

// GetCustomerID returns "" when the project does not exist or is unattached.
func (r *ProjectRepository) GetCustomerID(ctx context.Context, projectID string) (string, error) {
	if err := requireID("project id", projectID); err != nil {
		return "", err
	}
	customerID, _, err := r.kv.HGet(ctx, r.ks.Entity(keys.KindProject, projectID), "customerId")
	return customerID, err
}

// --- Conversation membership ---

// AddConversation links both sides of the project↔conversation edge.
func (r *ProjectRepository) AddConversation(ctx context.Context, projectID, conversationID string) error {
	return r.addChild(ctx, projectID, keys.RelConversations, keys.KindConversation, conversationID)
}

// RemoveConversation unlinks both sides; unlinking a non-member is a no-op.
func (r *ProjectRepository) RemoveConversation(ctx context.Context, projectID, conversationID string) error {
	return r.removeChild(ctx, projectID, keys.RelConversations, keys.KindConversation, conversationID)
}

// GetConversationIDs lists the project's conversation membership set.
func (r *ProjectRepository) GetConversationIDs(ctx context.Context, projectID string) ([]string, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	return r.kv.SMembers(ctx, r.ks.Relation(keys.KindProject, projectID, keys.RelConversations))
}

// --- Post membership ---

// AddPost links both sides of the project↔post edge.
func (r *ProjectRepository) AddPost(ctx context.Context, projectID, postID string) error {
	return r.addChild(ctx, projectID, keys.RelPosts, keys.KindPost, postID)
}

// RemovePost unlinks both sides; unlinking a non-member is a no-op.
func (r *ProjectRepository) RemovePost(ctx context.Context, projectID, postID string) error {
	return r.removeChild(ctx, projectID, keys.RelPosts, keys.KindPost, postID)
}

// GetPostIDs lists the project's post membership set.
func (r *ProjectRepository) GetPostIDs(ctx context.Context, projectID string) ([]string, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	return r.kv.SMembers(ctx, r.ks.Relation(keys.KindProject, projectID, keys.RelPosts))
}

func (r *ProjectRepository) addChild(ctx context.Context, projectID string, rel keys.Relation, childKind keys.Kind, childID string) error {
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	if err := requireID(string(childKind)+" id", childID); err != nil {
		return err
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindProject, projectID)); err != nil {
		return err
	} else if !exists {
		return notFound(keys.KindProject, projectID)
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(childKind, childID)); err != nil {
		return err
	} else if !exists {
		return notFound(childKind, childID)
	}
	p := r.kv.Pipeline()
	p.SAdd(r.ks.Relation(keys.KindProject, projectID, rel), childID)
	p.HSet(r.ks.Entity(childKind, childID), map[string]string{"projectId": projectID})
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("add %s: %w", childKind, err)
	}
	return nil
}

func (r *ProjectRepository) removeChild(ctx context.Context, projectID string, rel keys.Relation, childKind keys.Kind, childID string) error {
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	if err := requireID(string(childKind)+" id", childID); err != nil {
		return err
	}
	p := r.kv.Pipeline()
	p.SRem(r.ks.Relation(keys.KindProject, projectID, rel), childID)
	p.HDel(r.ks.Entity(childKind, childID), "projectId")
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("remove %s: %w", childKind, err)
	}
	return nil
}

// Delete removes the record and its membership sets and drops the project
// from its customer's set. Conversations and posts under the project are not
// cascaded; callers delete them first if they want a full teardown.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if err := requireID("project id", id); err != nil {
		return err
	}
	projKey := r.ks.Entity(keys.KindProject, id)
	current, err := r.kv.HGetAll(ctx, projKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindProject, id)
	}
	p := r.kv.Pipeline()
	p.Del(projKey,
		r.ks.Relation(keys.KindProject, id, keys.RelConversations),
		r.ks.Relation(keys.KindProject, id, keys.RelPosts))
	if customerID := current["customerId"]; customerID != "" {
		p.SRem(r.ks.Relation(keys.KindCustomer, customerID, keys.RelProjects), id)
	}
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// ListByCustomer resolves the customer's project set and fetches each record.
// Dangling member ids are logged and skipped.
func (r *ProjectRepository) ListByCustomer(ctx context.Context, customerID string) ([]model.Project, error) {
	if err := requireID("customer id", customerID); err != nil {
		return nil, err
	}
	ids, err := r.kv.SMembers(ctx, r.ks.Relation(keys.KindCustomer, customerID, keys.RelProjects))
	if err != nil {
		return nil, err
	}
	out := make([]model.Project, 0, len(ids))
	for _, id := range ids {
		pr, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if pr == nil {
			r.log.Warn().Str("customerId", customerID).Str("projectId", id).Msg("project set points at missing record")
			continue
		}
		out = append(out, *pr)
	}
	return out, nil
}

// ScanByCustomer enumerates all project keys and filters by customer field.
// Fallback for stores whose customer-side set was never backfilled.
func (r *ProjectRepository) ScanByCustomer(ctx context.Context, customerID string) ([]model.Project, error) {
	if err := requireID("customer id", customerID); err != nil {
		return nil, err
	}
	keyList, err := r.kv.Scan(ctx, r.ks.EntityPattern(keys.KindProject))
	if err != nil {
		return nil, err
	}
	var out []model.Project
	for _, key := range keyList {
		id, ok := r.ks.ParseEntityID(keys.KindProject, key)
		if !ok {
			continue
		}
		pr, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if pr != nil && pr.CustomerID == customerID {
			out = append(out, *pr)
		}
	}
	return out, nil
}
