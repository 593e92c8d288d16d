package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/contentdesk/contentdesk/internal/hashcodec"
	"github.com/contentdesk/contentdesk/internal/keys"
	"github.com/contentdesk/contentdesk/internal/kv"
	"github.com/contentdesk/contentdesk/internal/model"
)

// ConversationRepository persists conversation metadata in a hash, the
// message log in an append-only list, and post links in a set (conversations
// and posts relate many-to-many).
type ConversationRepository struct {
	kv  kv.Store
	ks  keys.Scheme
	log zerolog.Logger
}

// ConversationPatch is a partial update; the owning project is moved through
// SetProject, never patched.
type ConversationPatch struct {
	Title *string
}

func (r *ConversationRepository) encode(c *model.Conversation) (map[string]string, error) {
	return hashcodec.Encode(map[string]any{
		"id":        c.ID,
		"projectId": c.ProjectID,
		"title":     c.Title,
		"timestamp": c.Timestamp,
	})
}

func (r *ConversationRepository) decode(id string, fields map[string]string) *model.Conversation {
	if fields["id"] == "" {
		r.log.Warn().Str("conversationId", id).Msg("conversation record fails shape validation, treating as absent")
		return nil
	}
	return &model.Conversation{
		ID:        fields["id"],
		ProjectID: fields["projectId"],
		Title:     fields["title"],
		Timestamp: hashcodec.TimeField(fields, "timestamp"),
	}
}

// Create writes the metadata record and registers it in the owning project's
// conversation set in one batch. A zero timestamp defaults to now.
func (r *ConversationRepository) Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	if err := requireID("project id", c.ProjectID); err != nil {
		return nil, err
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindProject, c.ProjectID)); err != nil {
		return nil, err
	} else if !exists {
		return nil, notFound(keys.KindProject, c.ProjectID)
	}
	out := *c
	if out.ID == "" {
		out.ID = uuid.New().String()
	} else {
		exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindConversation, out.ID))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &model.ConflictError{Resource: "conversation", Field: "id", Value: out.ID, ExistingID: out.ID}
		}
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.HSet(r.ks.Entity(keys.KindConversation, out.ID), fields)
	p.SAdd(r.ks.Relation(keys.KindProject, out.ProjectID, keys.RelConversations), out.ID)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &out, nil
}

// Upsert creates or replaces metadata depending on the explicit mode. The
// message log and post links survive a ModeUpdate replace.
func (r *ConversationRepository) Upsert(ctx context.Context, c *model.Conversation, mode model.WriteMode) (*model.Conversation, error) {
	switch mode {
	case model.ModeCreate:
		return r.Create(ctx, c)
	case model.ModeUpdate:
	default:
		return nil, fmt.Errorf("%w: unknown write mode %d", model.ErrInvalidArgument, mode)
	}
	if err := requireID("conversation id", c.ID); err != nil {
		return nil, err
	}
	convKey := r.ks.Entity(keys.KindConversation, c.ID)
	current, err := r.kv.HGetAll(ctx, convKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindConversation, c.ID)
	}
	if c.ProjectID != "" && c.ProjectID != current["projectId"] {
		return nil, fmt.Errorf("%w: moving a conversation must go through SetProject", model.ErrInvalidArgument)
	}
	out := *c
	out.ProjectID = current["projectId"]
	if out.Timestamp.IsZero() {
		out.Timestamp = hashcodec.TimeField(current, "timestamp")
	}
	fields, err := r.encode(&out)
	if err != nil {
		return nil, err
	}
	p := r.kv.Pipeline()
	p.Del(convKey)
	p.HSet(convKey, fields)
	if err := p.Exec(ctx); err != nil {
		return nil, fmt.Errorf("replace conversation: %w", err)
	}
	return &out, nil
}

// GetMetadata returns the conversation record without its messages, nil when
// absent.
func (r *ConversationRepository) GetMetadata(ctx context.Context, id string) (*model.Conversation, error) {
	if err := requireID("conversation id", id); err != nil {
		return nil, err
	}
	fields, err := r.kv.HGetAll(ctx, r.ks.Entity(keys.KindConversation, id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return r.decode(id, fields), nil
}

// Get returns metadata plus the full message log, nil when absent.
func (r *ConversationRepository) Get(ctx context.Context, id string) (*model.ConversationWithMessages, error) {
	meta, err := r.GetMetadata(ctx, id)
	if err != nil || meta == nil {
		return nil, err
	}
	msgs, err := r.GetMessages(ctx, id, 0, -1)
	if err != nil {
		return nil, err
	}
	return &model.ConversationWithMessages{Conversation: *meta, Messages: msgs}, nil
}

// Update applies a partial update to the metadata record.
func (r *ConversationRepository) Update(ctx context.Context, id string, patch ConversationPatch) (*model.Conversation, error) {
	if err := requireID("conversation id", id); err != nil {
		return nil, err
	}
	convKey := r.ks.Entity(keys.KindConversation, id)
	current, err := r.kv.HGetAll(ctx, convKey)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, notFound(keys.KindConversation, id)
	}
	fields := map[string]string{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if len(fields) > 0 {
		if err := r.kv.HSet(ctx, convKey, fields); err != nil {
			return nil, fmt.Errorf("update conversation: %w", err)
		}
	}
	for f, v := range fields {
		current[f] = v
	}
	return r.decode(id, current), nil
}

// SetProject moves the conversation between projects, updating both parent
// sets and the child pointer in one batch.
func (r *ConversationRepository) SetProject(ctx context.Context, conversationID, projectID string) error {
	if err := requireID("conversation id", conversationID); err != nil {
		return err
	}
	if err := requireID("project id", projectID); err != nil {
		return err
	}
	convKey := r.ks.Entity(keys.KindConversation, conversationID)
	current, err := r.kv.HGetAll(ctx, convKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindConversation, conversationID)
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindProject, projectID)); err != nil {
		return err
	} else if !exists {
		return notFound(keys.KindProject, projectID)
	}
	old := current["projectId"]
	p := r.kv.Pipeline()
	p.HSet(convKey, map[string]string{"projectId": projectID})
	if old != "" && old != projectID {
		p.SRem(r.ks.Relation(keys.KindProject, old, keys.RelConversations), conversationID)
	}
	p.SAdd(r.ks.Relation(keys.KindProject, projectID, keys.RelConversations), conversationID)
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("set project: %w", err)
	}
	return nil
}

// GetProjectID returns "" when the conversation is missing or unattached.
func (r *ConversationRepository) GetProjectID(ctx context.Context, conversationID string) (string, error) {
	if err := requireID("conversation id", conversationID); err != nil {
		return "", err
	}
	projectID, _, err := r.kv.HGet(ctx, r.ks.Entity(keys.KindConversation, conversationID), "projectId")
	return projectID, err
}

// --- Message log ---

// AddMessage appends to the conversation's log. The conversation must exist;
// a zero timestamp defaults to now. Messages are never updated or removed
// individually.
func (r *ConversationRepository) AddMessage(ctx context.Context, conversationID string, msg model.Message) (*model.Message, error) {
	if err := requireID("conversation id", conversationID); err != nil {
		return nil, err
	}
	if !msg.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown message role %q", model.ErrInvalidArgument, msg.Role)
	}
	exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindConversation, conversationID))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(keys.KindConversation, conversationID)
	}
	out := msg
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: message: %v", model.ErrInvalidArgument, err)
	}
	if err := r.kv.RPush(ctx, r.ks.Relation(keys.KindConversation, conversationID, keys.RelMessages), string(b)); err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return &out, nil
}

// GetMessages slices the log with inclusive, zero-based indices; negative
// indices count from the end (-1 is the last message). Malformed entries are
// logged and skipped so one corrupt element never fails the whole read.
func (r *ConversationRepository) GetMessages(ctx context.Context, conversationID string, start, stop int64) ([]model.Message, error) {
	if err := requireID("conversation id", conversationID); err != nil {
		return nil, err
	}
	raw, err := r.kv.LRange(ctx, r.ks.Relation(keys.KindConversation, conversationID, keys.RelMessages), start, stop)
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(raw))
	for i, entry := range raw {
		var m model.Message
		if err := json.Unmarshal([]byte(entry), &m); err != nil {
			r.log.Warn().Str("conversationId", conversationID).Int("index", i).Err(err).Msg("skipping malformed message entry")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// GetRecentMessages returns the last count messages in chronological order.
// count <= 0 yields an empty slice; count beyond the log length yields the
// whole log.
func (r *ConversationRepository) GetRecentMessages(ctx context.Context, conversationID string, count int) ([]model.Message, error) {
	if count <= 0 {
		return []model.Message{}, nil
	}
	return r.GetMessages(ctx, conversationID, int64(-count), -1)
}

// --- Post links (many-to-many) ---

// AddPost links both sides of the conversation↔post edge. A post commonly
// spans several conversations' context, hence the set on both sides.
func (r *ConversationRepository) AddPost(ctx context.Context, conversationID, postID string) error {
	if err := requireID("conversation id", conversationID); err != nil {
		return err
	}
	if err := requireID("post id", postID); err != nil {
		return err
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindConversation, conversationID)); err != nil {
		return err
	} else if !exists {
		return notFound(keys.KindConversation, conversationID)
	}
	if exists, err := r.kv.Exists(ctx, r.ks.Entity(keys.KindPost, postID)); err != nil {
		return err
	} else if !exists {
		return notFound(keys.KindPost, postID)
	}
	p := r.kv.Pipeline()
	p.SAdd(r.ks.Relation(keys.KindConversation, conversationID, keys.RelPosts), postID)
	p.SAdd(r.ks.Relation(keys.KindPost, postID, keys.RelConversations), conversationID)
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("add post link: %w", err)
	}
	return nil
}

// RemovePost unlinks both sides; removing an absent link is a no-op.
func (r *ConversationRepository) RemovePost(ctx context.Context, conversationID, postID string) error {
	if err := requireID("conversation id", conversationID); err != nil {
		return err
	}
	if err := requireID("post id", postID); err != nil {
		return err
	}
	p := r.kv.Pipeline()
	p.SRem(r.ks.Relation(keys.KindConversation, conversationID, keys.RelPosts), postID)
	p.SRem(r.ks.Relation(keys.KindPost, postID, keys.RelConversations), conversationID)
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("remove post link: %w", err)
	}
	return nil
}

// GetPostIDs lists the posts linked to this conversation.
func (r *ConversationRepository) GetPostIDs(ctx context.Context, conversationID string) ([]string, error) {
	if err := requireID("conversation id", conversationID); err != nil {
		return nil, err
	}
	return r.kv.SMembers(ctx, r.ks.Relation(keys.KindConversation, conversationID, keys.RelPosts))
}

// Delete removes the metadata record, the whole message log, the post link
// set (including back-links on each linked post), and the project-side
// membership, as one batch.
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	if err := requireID("conversation id", id); err != nil {
		return err
	}
	convKey := r.ks.Entity(keys.KindConversation, id)
	current, err := r.kv.HGetAll(ctx, convKey)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return notFound(keys.KindConversation, id)
	}
	postsKey := r.ks.Relation(keys.KindConversation, id, keys.RelPosts)
	linkedPosts, err := r.kv.SMembers(ctx, postsKey)
	if err != nil {
		return err
	}
	p := r.kv.Pipeline()
	p.Del(convKey, r.ks.Relation(keys.KindConversation, id, keys.RelMessages), postsKey)
	if projectID := current["projectId"]; projectID != "" {
		p.SRem(r.ks.Relation(keys.KindProject, projectID, keys.RelConversations), id)
	}
	for _, postID := range linkedPosts {
		p.SRem(r.ks.Relation(keys.KindPost, postID, keys.RelConversations), id)
	}
	if err := p.Exec(ctx); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
