package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/hashcodec"
	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/model"
)

// PostRepository persists posts in a hash (content pieces as one ordered
// JSON-array field) plus unordered sets for media links, image prompts and
// conversation links.
type PostRepository struct {
	kv  kv.Store
	ks  keys.Scheme
	log zerolog.Logger
}

// PostPatch is the metadata-only update surface. Content pieces and parent
// linkage are deliberately excluded; they go through their dedicated setters
// so a metadata edit can never clobber them.
type PostPatch struct {
	TargetPlatform *string
	PostType       *string
}

func (r *PostRepository) encode(p *model.Post) (map[string]string, error) {
	attrs := map[string]any{
		"id":             p.ID,
		"projectId":      p.ProjectID,
		"targetPlatform": p.TargetPlatform,
		"postType":       p.PostType,
	}
	if p.ContentPieces != nil {
		attrs["contentPieces"] = p.ContentPieces
	}
	return hashcodec.Encode(attrs)
}

func (r *PostRepository) decode(id string, fields map[string]string) *model.Post {
	if fields["id"] == "" {
		r.log.Warn().Str("postId", id).Msg("post record fails shape validation, treating as absent")
		return nil
	}
	pieces, ok := hashcodec.StringsField(fields, "contentPieces")
	if !ok && fields["contentPieces"+hashcodec.JSONSuffix] != "" {
		r.log.Warn().Str("postId", id).Msg("skipping malformed contentPieces field")
	}
	return &model.Post{
		ID:             fields["id"],
		ProjectID:      fields["projectId"],
		TargetPlatform: fields["targetPlatform"],
		PostType:       fields["postType"],
		ContentPieces:  pieces,
	}
}

// Create writes the record and registers it in the owning project's post set
// in one batch. The project must exist.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	if err := requireID("project id", post.ProjectID); err != nil {
		return nil, err
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindProject, post.ProjectID)); err != nil {
		return nil, err
	} else if !exists {
		return nil, notFound(keys.KindProject, post.ProjectID)
	}
	out := *post
	if out.ID == "" {
		out.ID = uuid.New().String()
	} else {
		exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindPost, out.ID))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &model.ConflictError{Resource: "post", Field: "id", Value: out.ID, ExistingID: out.ID}
		}
	}
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.HSet(r.ks.Entity(keys.KindPost, out.ID), fields)
	p.SAdd(r.ks.Relation(keys.KindProject, out.ProjectID, keys.RelPosts), out.ID)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &out, nil
}

// Upsert creates or replaces depending on the explicit mode. ModeUpdate
// replaces the record's own fields; the link sets survive, and parent moves
// go through the project repository.
func (r *PostRepository) Upsert(ctx context.Context, post *model.Post, mode model.WriteMode) (*model.Post, error) {
	switch mode {
	case model.ModeCreate:
		return r.Create(ctx, post)
	case model.ModeUpdate:
	default:
		return nil, fmt.Errorf("%w: unknown write mode %d", model.ErrInvalidArgument, mode)
	}
	if err := requireID("post id", post.ID); err != nil {
		return nil, err
	}
	postKey := r.ks.Entity(keys.KindPost, post.ID)
	current, err := r.kv.HGetAll(ctx, postKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindPost, post.ID)
	}
	if post.ProjectID != "" && post.ProjectID != current["projectId"] {
		return nil, fmt.Errorf("%w: moving a post between projects is not supported through Upsert", model.ErrInvalidArgument)
	}
	out := *post
	out.ProjectID = current["projectId"]
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.Del(postKey)
	p.HSet(postKey, fields)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("replace post: %w", err)
	}
	return &out, nil
}

// Get returns nil without error when the id has no record.
func (r *PostRepository) Get(ctx context.Context, id string) (*model.Post, error) {
	if err := requireID("post id", id); err != nil {
		return nil, err
	}
	fields, err := r.kv.HGetAll(ctx, r.ks.Entity(keys.KindPost, id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return r.decode(id, fields), nil
}

// Update applies the metadata-only patch.
func (r *PostRepository) Update(ctx context.Context, id string, patch PostPatch) (*model.Post, error) {
	if err := requireID("post id", id); err != nil {
		return nil, err
	}
	postKey := r.ks.Entity(keys.KindPost, id)
	current, err := r.kv.HGetAll(ctx, postKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindPost, id)
	}
	fields := map[string]string{}
	if patch.TargetPlatform != nil {
		fields["targetPlatform"] = *patch.TargetPlatform
	}
	if patch.PostType != nil {
		fields["postType"] = *patch.PostType
	}
	if len(fields) > 0 {
		if err := r.kv.HSet(ctx, postKey, fields); err != nil {
			return nil, fmt.Errorf("update post: %w", err)
		}
	}
	for f, v := range fields {
		current[f] = v
	}
	return r.decode(id, current), nil
}

// SetContentPieces replaces the ordered content sequence. Order survives the
// JSON round trip exactly; a nil slice stores an empty array.
func (r *PostRepository) SetContentPieces(ctx context.Context, id string, pieces []string) error {
	if err := requireID("post id", id); err != nil {
		return err
	}
	postKey := r.ks.Entity(keys.KindPost, id)
	exists, err := r.kv.Exists(ctx, postKey)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(keys.KindPost, id)
	}
	if pieces == nil {
		pieces = []string{}
	}
	b, err := json.Marshal(pieces)
	if err != nil {
		return fmt.Errorf("%w: contentPieces: %v", model.ErrInvalidArgument, err)
	}
	return r.kv.HSet(ctx, postKey, map[string]string{"contentPieces" + hashcodec.JSONSuffix: string(b)})
}

// GetProjectID returns "" when the post is missing or unattached.
func (r *PostRepository) GetProjectID(ctx context.Context, id string) (string, error) {
	if err := requireID("post id", id); err != nil {
		return "", err
	}
	projectID, _, err := r.kv.HGet(ctx, r.ks.Entity(keys.KindPost, id), "projectId")
	return projectID, err
}

// --- Image prompts (unordered, deduplicating) ---

func (r *PostRepository) AddImagePrompt(ctx context.Context, id, prompt string) error {
	return r.addSetMember(ctx, id, keys.RelImagePrompts, prompt)
}

func (r *PostRepository) RemoveImagePrompt(ctx context.Context, id, prompt string) error {
	return r.removeSetMember(ctx, id, keys.RelImagePrompts, prompt)
}

func (r *PostRepository) GetImagePrompts(ctx context.Context, id string) ([]string, error) {
	return r.setMembers(ctx, id, keys.RelImagePrompts)
}

// --- Media links (unordered, deduplicating) ---

func (r *PostRepository) AddMediaLink(ctx context.Context, id, link string) error {
	return r.addSetMember(ctx, id, keys.RelMediaLinks, link)
}

// RemoveMediaLink is a no-op for a link that is not present.
func (r *PostRepository) RemoveMediaLink(ctx context.Context, id, link string) error {
	return r.removeSetMember(ctx, id, keys.RelMediaLinks, link)
}

func (r *PostRepository) GetMediaLinks(ctx context.Context, id string) ([]string, error) {
	return r.setMembers(ctx, id, keys.RelMediaLinks)
}

func (r *PostRepository) addSetMember(ctx context.Context, id string, rel keys.Relation, member string) error {
	if err := requireID("post id", id); err != nil {
		return err
	}
	if member == "" {
		return fmt.Errorf("%w: member is required", model.ErrInvalidArgument)
	}
	exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindPost, id))
	if err != nil {
		return err
	}
	if !exists {
		return notFound(keys.KindPost, id)
	}
	return r.kv.SAdd(ctx, r.ks.Relation(keys.KindPost, id, rel), member)
}

func (r *PostRepository) removeSetMember(ctx context.Context, id string, rel keys.Relation, member string) error {
	if err := requireID("post id", id); err != nil {
		return err
	}
	if member == "" {
		return fmt.Errorf("%w: member is required", model.ErrInvalidArgument)
	}
	return r.kv.SRem(ctx, r.ks.Relation(keys.KindPost, id, rel), member)
}

func (r *PostRepository) setMembers(ctx context.Context, id string, rel keys.Relation) ([]string, error) {
	if err := requireID("post id", id); err != nil {
		return nil, err
	}
	return r.kv.SMembers(ctx, r.ks.Relation(keys.KindPost, id, rel))
}

// --- Conversation links (many-to-many) ---

// GetConversationIDs lists conversations this post is linked into.
func (r *PostRepository) GetConversationIDs(ctx context.Context, id string) ([]string, error) {
	if err := requireID("post id", id); err != nil {
		return nil, err
	}
	return r.kv.SMembers(ctx, r.ks.Relation(keys.KindPost, id, keys.RelConversations))
}

// Delete removes the record, all its auxiliary sets, the project-side
// membership, and the back-link from every linked conversation, as one batch.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	if err := requireID("post id", id); err != nil {
		return err
	}
	postKey := r.ks.Entity(keys.KindPost, id)
	current, err := r.kv.HGetAll(ctx, postKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindPost, id)
	}
	convsKey := r.ks.Relation(keys.KindPost, id, keys.RelConversations)
	linkedConvs, err := r.kv.SMembers(ctx, convsKey)
	if err != nil {
		return err
	}
	p := r.kv.Pipeline()
	p.Del(postKey,
		r.ks.Relation(keys.KindPost, id, keys.RelMediaLinks),
		r.ks.Relation(keys.KindPost, id, keys.RelImagePrompts),
		convsKey)
	if projectID := current["projectId"]; projectID != "" {
		p.SRem(r.ks.Relation(keys.KindProject, projectID, keys.RelPosts), id)
	}
	for _, convID := range linkedConvs {
		p.SRem(r.ks.Relation(keys.KindConversation, convID, keys.RelPosts), id)
	}
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
