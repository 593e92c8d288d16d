package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/contentdesk/contentdesk/internal/api/respond"
	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
	"github.com/contentdesk/contentdesk/internal/services"
)

// ProjectHandler provides HTTP transport for project operations.
type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(svc *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: svc}
}

// CreateProject POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string         `json:"name"`
		CustomerID string         `json:"customerId"`
		Objective  string         `json:"objective,omitempty"`
		AIContext  map[string]any `json:"aiContext,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	p, err := h.projectService.CreateProject(r.Context(), &model.Project{
		Name:       req.Name,
		CustomerID: req.CustomerID,
		Objective:  req.Objective,
		AIContext:  req.AIContext,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, p)
}

// GetProject GET /api/projects/{projectId}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	p, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if p == nil {
		respond.WriteNotFound(w, "project not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// UpdateProject PATCH /api/projects/{projectId}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	var req struct {
		Name      *string        `json:"name,omitempty"`
		Objective *string        `json:"objective,omitempty"`
		AIContext map[string]any `json:"aiContext,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	p, err := h.projectService.UpdateProject(r.Context(), projectID, repository.ProjectPatch{
		Name:      req.Name,
		Objective: req.Objective,
		AIContext: req.AIContext,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// GetAIContext GET /api/projects/{projectId}/ai-context
func (h *ProjectHandler) GetAIContext(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	ctxMap, err := h.projectService.GetAIContext(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"aiContext": ctxMap})
}

// UpdateAIContext PUT /api/projects/{projectId}/ai-context
func (h *ProjectHandler) UpdateAIContext(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	var req struct {
		AIContext map[string]any `json:"aiContext"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.projectService.UpdateAIContext(r.Context(), projectID, req.AIContext); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveToCustomer POST /api/projects/{projectId}/customer
func (h *ProjectHandler) MoveToCustomer(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	var req struct {
		CustomerID string `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.projectService.MoveToCustomer(r.Context(), projectID, req.CustomerID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProject DELETE /api/projects/{projectId}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if err := h.projectService.DeleteProject(r.Context(), projectID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCustomerProjects GET /api/customers/{customerId}/projects
func (h *ProjectHandler) ListCustomerProjects(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerId"]
	projects, err := h.projectService.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"projects": projects, "count": len(projects)})
}
