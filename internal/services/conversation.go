package services

import (
	"context"

	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
)

// ConversationService handles conversations and their message logs.
type ConversationService struct {
	repos *repository.Repositories
}

func NewConversationService(r *repository.Repositories) *ConversationService {
	return &ConversationService{repos: r}
}

func (s *ConversationService) CreateConversation(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	return s.repos.Conversations.Create(ctx, c)
}

func (s *ConversationService) GetConversation(ctx context.Context, id string) (*model.ConversationWithMessages, error) {
	return s.repos.Conversations.Get(ctx, id)
}

func (s *ConversationService) GetMetadata(ctx context.Context, id string) (*model.Conversation, error) {
	return s.repos.Conversations.GetMetadata(ctx, id)
}

func (s *ConversationService) UpdateConversation(ctx context.Context, id string, patch repository.ConversationPatch) (*model.Conversation, error) {
	return s.repos.Conversations.Update(ctx, id, patch)
}

func (s *ConversationService) AddMessage(ctx context.Context, conversationID string, msg model.Message) (*model.Message, error) {
	return s.repos.Conversations.AddMessage(ctx, conversationID, msg)
}

func (s *ConversationService) GetMessages(ctx context.Context, conversationID string, start, stop int64) ([]model.Message, error) {
	return s.repos.Conversations.GetMessages(ctx, conversationID, start, stop)
}

func (s *ConversationService) GetRecentMessages(ctx context.Context, conversationID string, count int) ([]model.Message, error) {
	return s.repos.Conversations.GetRecentMessages(ctx, conversationID, count)
}

func (s *ConversationService) LinkPost(ctx context.Context, conversationID, postID string) error {
	return s.repos.Conversations.AddPost(ctx, conversationID, postID)
}

func (s *ConversationService) UnlinkPost(ctx context.Context, conversationID, postID string) error {
	return s.repos.Conversations.RemovePost(ctx, conversationID, postID)
}

func (s *ConversationService) GetPostIDs(ctx context.Context, conversationID string) ([]string, error) {
	return s.repos.Conversations.GetPostIDs(ctx, conversationID)
}

func (s *ConversationService) DeleteConversation(ctx context.Context, id string) error {
	return s.repos.Conversations.Delete(ctx, id)
}
