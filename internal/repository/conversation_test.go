package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdesk/contentdesk/internal/model"
)

func setupProject(t *testing.T, repos *Repositories) *model.Project {
	t.Helper()
	ctx := context.Background()
	c, err := repos.Customers.Create(ctx, &model.Customer{Name: "Acme", OwnerUserID: "owner-1"})
	require.NoError(t, err)
	p, err := repos.Projects.Create(ctx, &model.Project{Name: "P", CustomerID: c.ID})
	require.NoError(t, err)
	return p
}

func TestConversationCreateDefaultsTimestamp(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)

	created, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID, Title: "Kickoff"})
	require.NoError(t, err)
	assert.False(t, created.Timestamp.IsZero())

	got, err := repos.Conversations.GetMetadata(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Kickoff", got.Title)
	assert.WithinDuration(t, created.Timestamp, got.Timestamp, time.Millisecond)
}

func TestConversationCreateRequiresExistingProject(t *testing.T) {
	repos, _ := newTestRepos(t)
	_, err := repos.Conversations.Create(context.Background(), &model.Conversation{ProjectID: "no-such"})
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
}

func TestConversationMessagesAppendAndSlice(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := repos.Conversations.AddMessage(ctx, conv.ID, model.Message{
			Role:    model.MessageRoleUser,
			Content: fmt.Sprintf("msg-%d", i),
		})
		require.NoError(t, err)
	}

	all, err := repos.Conversations.GetMessages(ctx, conv.ID, 0, -1)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "msg-0", all[0].Content)
	assert.Equal(t, "msg-4", all[4].Content)

	// Last three, chronological order.
	recent, err := repos.Conversations.GetRecentMessages(ctx, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "msg-2", recent[0].Content)
	assert.Equal(t, "msg-4", recent[2].Content)

	// Zero or negative count yields empty, not an error.
	recent, err = repos.Conversations.GetRecentMessages(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, recent)

	// Count beyond the log length yields the whole log.
	recent, err = repos.Conversations.GetRecentMessages(ctx, conv.ID, 100)
	require.NoError(t, err)
	assert.Len(t, recent, 5)
}

func TestConversationAddMessageValidation(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID})
	require.NoError(t, err)

	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{Role: "robot", Content: "x"})
	assert.True(t, model.IsInvalidArgument(err))

	_, err = repos.Conversations.AddMessage(ctx, "no-such", model.Message{Role: model.MessageRoleUser, Content: "x"})
	assert.True(t, model.IsNotFound(err))
}

func TestConversationMalformedMessageSkipped(t *testing.T) {
	repos, st := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID})
	require.NoError(t, err)

	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{Role: model.MessageRoleUser, Content: "good"})
	require.NoError(t, err)
	// Inject a corrupt element directly into the log.
	require.NoError(t, st.RPush(ctx, "test:conversation:"+conv.ID+":messages", "{broken"))
	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{Role: model.MessageRoleAssistant, Content: "also good"})
	require.NoError(t, err)

	msgs, err := repos.Conversations.GetMessages(ctx, conv.ID, 0, -1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "good", msgs[0].Content)
	assert.Equal(t, "also good", msgs[1].Content)
}

func TestConversationGetWithMessages(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID, Title: "T"})
	require.NoError(t, err)
	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{Role: model.MessageRoleUser, Content: "hello"})
	require.NoError(t, err)

	got, err := repos.Conversations.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "T", got.Title)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)

	missing, err := repos.Conversations.Get(ctx, "no-such")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConversationPostLinksBothSides(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID})
	require.NoError(t, err)
	post, err := repos.Posts.Create(ctx, &model.Post{ProjectID: project.ID, TargetPlatform: "x"})
	require.NoError(t, err)

	require.NoError(t, repos.Conversations.AddPost(ctx, conv.ID, post.ID))

	fromConv, err := repos.Conversations.GetPostIDs(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, fromConv)
	fromPost, err := repos.Posts.GetConversationIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{conv.ID}, fromPost)

	// Linking to a missing post is NotFound.
	err = repos.Conversations.AddPost(ctx, conv.ID, "no-such")
	assert.True(t, model.IsNotFound(err))

	require.NoError(t, repos.Conversations.RemovePost(ctx, conv.ID, post.ID))
	fromPost, err = repos.Posts.GetConversationIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, fromPost)

	// Removing an absent link is a no-op.
	require.NoError(t, repos.Conversations.RemovePost(ctx, conv.ID, post.ID))
}

func TestConversationUpsertKeepsMessages(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID, Title: "Old"})
	require.NoError(t, err)
	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{Role: model.MessageRoleUser, Content: "kept"})
	require.NoError(t, err)

	_, err = repos.Conversations.Upsert(ctx, &model.Conversation{ID: conv.ID, Title: "New"}, model.ModeUpdate)
	require.NoError(t, err)

	got, err := repos.Conversations.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, project.ID, got.ProjectID)
	require.Len(t, got.Messages, 1, "replace must not touch the message log")

	// Moving through Upsert is rejected.
	other := setupProject(t, repos)
	_, err = repos.Conversations.Upsert(ctx, &model.Conversation{ID: conv.ID, ProjectID: other.ID}, model.ModeUpdate)
	assert.True(t, model.IsInvalidArgument(err))
}

func TestConversationDeleteCleansEverything(t *testing.T) {
	repos, st := newTestRepos(t)
	ctx := context.Background()
	project := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID})
	require.NoError(t, err)
	post, err := repos.Posts.Create(ctx, &model.Post{ProjectID: project.ID})
	require.NoError(t, err)
	require.NoError(t, repos.Conversations.AddPost(ctx, conv.ID, post.ID))
	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{Role: model.MessageRoleUser, Content: "x"})
	require.NoError(t, err)

	require.NoError(t, repos.Conversations.Delete(ctx, conv.ID))

	got, err := repos.Conversations.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Project set, message log and post back-link are all gone.
	ids, err := repos.Projects.GetConversationIDs(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	exists, err := st.Exists(ctx, "test:conversation:"+conv.ID+":messages")
	require.NoError(t, err)
	assert.False(t, exists)
	backlinks, err := repos.Posts.GetConversationIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, backlinks)

	err = repos.Conversations.Delete(ctx, conv.ID)
	assert.True(t, model.IsNotFound(err))
}

func TestConversationSetProjectMovesMembership(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	p1 := setupProject(t, repos)
	p2 := setupProject(t, repos)
	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: p1.ID})
	require.NoError(t, err)

	require.NoError(t, repos.Conversations.SetProject(ctx, conv.ID, p2.ID))

	projectID, err := repos.Conversations.GetProjectID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, p2.ID, projectID)

	oldIDs, err := repos.Projects.GetConversationIDs(ctx, p1.ID)
	require.NoError(t, err)
	assert.Empty(t, oldIDs)
	newIDs, err := repos.Projects.GetConversationIDs(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{conv.ID}, newIDs)
}
