package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdesk/contentdesk/internal/model"
)

// TestContentStudioWorkflow walks the whole lifecycle once: a user signs up,
// subscribes, creates a customer workspace, grants a collaborator, plans a
// project, brainstorms in a conversation and turns it into a linked post,
// then everything is torn down again.
func TestContentStudioWorkflow(t *testing.T) {
	repos, st := newTestRepos(t)
	ctx := context.Background()

	owner, err := repos.Users.Create(ctx, &model.User{Email: "maria@acme.example", Name: "Maria"})
	require.NoError(t, err)
	editor, err := repos.Users.Create(ctx, &model.User{Email: "jon@acme.example", Name: "Jon"})
	require.NoError(t, err)

	sub, err := repos.Subscriptions.Create(ctx, &model.Subscription{UserID: owner.ID, PlanType: "pro", Status: "active"})
	require.NoError(t, err)
	require.NoError(t, repos.Users.SetSubscriptionID(ctx, owner.ID, &sub.ID))

	customer, err := repos.Customers.Create(ctx, &model.Customer{
		Name:        "Acme Coffee Roasters",
		OwnerUserID: owner.ID,
		Industry:    "food & beverage",
		AIContext:   map[string]any{"tone": "warm", "audience": "home baristas"},
	})
	require.NoError(t, err)
	require.NoError(t, repos.Customers.SetPermission(ctx, customer.ID, editor.ID, model.RoleEditor))

	project, err := repos.Projects.Create(ctx, &model.Project{
		Name:       "Autumn Launch",
		CustomerID: customer.ID,
		Objective:  "introduce the seasonal blend",
	})
	require.NoError(t, err)

	conv, err := repos.Conversations.Create(ctx, &model.Conversation{ProjectID: project.ID, Title: "Campaign brainstorm"})
	require.NoError(t, err)
	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{
		Role: model.MessageRoleUser, Content: "We need three post ideas for the blend launch.", AuthorID: owner.ID,
	})
	require.NoError(t, err)
	_, err = repos.Conversations.AddMessage(ctx, conv.ID, model.Message{
		Role: model.MessageRoleAssistant, Content: "Idea 1: a tasting-notes carousel.",
	})
	require.NoError(t, err)

	post, err := repos.Posts.Create(ctx, &model.Post{
		ProjectID:      project.ID,
		TargetPlatform: "instagram",
		PostType:       "carousel",
		ContentPieces:  []string{"Meet the Autumn Blend", "Tasting notes: fig, cocoa, toast"},
	})
	require.NoError(t, err)
	require.NoError(t, repos.Conversations.AddPost(ctx, conv.ID, post.ID))

	// Everything resolves from everything else.
	access, err := repos.Customers.ListUserCustomersWithDetails(ctx, editor.ID)
	require.NoError(t, err)
	require.Len(t, access, 1)
	assert.Equal(t, "Acme Coffee Roasters", access[0].Name)
	assert.Equal(t, model.RoleEditor, access[0].Role)

	full, err := repos.Conversations.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, full.Messages, 2)
	assert.Equal(t, owner.ID, full.Messages[0].AuthorID)

	linked, err := repos.Posts.GetConversationIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{conv.ID}, linked)

	// Tear down from the leaves up.
	require.NoError(t, repos.Posts.Delete(ctx, post.ID))
	require.NoError(t, repos.Conversations.Delete(ctx, conv.ID))
	require.NoError(t, repos.Projects.Delete(ctx, project.ID))
	require.NoError(t, repos.Customers.Delete(ctx, customer.ID))
	require.NoError(t, repos.Subscriptions.Delete(ctx, sub.ID))
	require.NoError(t, repos.Users.Delete(ctx, owner.ID))
	require.NoError(t, repos.Users.Delete(ctx, editor.ID))

	// No keys left behind in the namespace.
	remaining, err := st.Scan(ctx, "test:*")
	require.NoError(t, err)
	assert.Empty(t, remaining, "teardown should leave no keys, got %v", remaining)
}
