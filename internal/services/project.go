package services

import (
	"context"

	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
)

// ProjectService handles projects. The customer↔project edge is maintained
// inside the repository's pipelined operations.
type ProjectService struct {
	repos *repository.Repositories
}

func NewProjectService(r *repository.Repositories) *ProjectService {
	return &ProjectService{repos: r}
}

func (s *ProjectService) CreateProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	return s.repos.Projects.Create(ctx, p)
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.repos.Projects.Get(ctx, id)
}

func (s *ProjectService) UpdateProject(ctx context.Context, id string, patch repository.ProjectPatch) (*model.Project, error) {
	return s.repos.Projects.Update(ctx, id, patch)
}

func (s *ProjectService) UpdateAIContext(ctx context.Context, id string, aiContext map[string]any) error {
	return s.repos.Projects.UpdateAIContext(ctx, id, aiContext)
}

func (s *ProjectService) GetAIContext(ctx context.Context, id string) (map[string]any, error) {
	return s.repos.Projects.GetAIContext(ctx, id)
}

func (s *ProjectService) MoveToCustomer(ctx context.Context, projectID, customerID string) error {
	return s.repos.Projects.SetCustomer(ctx, projectID, customerID)
}

func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	return s.repos.Projects.Delete(ctx, id)
}

func (s *ProjectService) ListByCustomer(ctx context.Context, customerID string) ([]model.Project, error) {
	return s.repos.Projects.ListByCustomer(ctx, customerID)
}
