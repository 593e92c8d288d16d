package services

import (
	"context"

	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
)

// PostService handles social-media post drafts.
type PostService struct {
	repos *repository.Repositories
}

func NewPostService(r *repository.Repositories) *PostService {
	return &PostService{repos: r}
}

func (s *PostService) CreatePost(ctx context.Context, p *model.Post) (*model.Post, error) {
	return s.repos.Posts.Create(ctx, p)
}

func (s *PostService) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return s.repos.Posts.Get(ctx, id)
}

func (s *PostService) UpdatePost(ctx context.Context, id string, patch repository.PostPatch) (*model.Post, error) {
	return s.repos.Posts.Update(ctx, id, patch)
}

func (s *PostService) SetContentPieces(ctx context.Context, id string, pieces []string) error {
	return s.repos.Posts.SetContentPieces(ctx, id, pieces)
}

func (s *PostService) AddMediaLink(ctx context.Context, id, link string) error {
	return s.repos.Posts.AddMediaLink(ctx, id, link)
}

func (s *PostService) RemoveMediaLink(ctx context.Context, id, link string) error {
	return s.repos.Posts.RemoveMediaLink(ctx, id, link)
}

func (s *PostService) GetMediaLinks(ctx context.Context, id string) ([]string, error) {
	return s.repos.Posts.GetMediaLinks(ctx, id)
}

func (s *PostService) AddImagePrompt(ctx context.Context, id, prompt string) error {
	return s.repos.Posts.AddImagePrompt(ctx, id, prompt)
}

func (s *PostService) RemoveImagePrompt(ctx context.Context, id, prompt string) error {
	return s.repos.Posts.RemoveImagePrompt(ctx, id, prompt)
}

func (s *PostService) GetImagePrompts(ctx context.Context, id string) ([]string, error) {
	return s.repos.Posts.GetImagePrompts(ctx, id)
}

func (s *PostService) GetConversationIDs(ctx context.Context, id string) ([]string, error) {
	return s.repos.Posts.GetConversationIDs(ctx, id)
}

func (s *PostService) DeletePost(ctx context.Context, id string) error {
	return s.repos.Posts.Delete(ctx, id)
}
