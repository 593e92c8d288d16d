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

// PostHandler provides HTTP transport for post drafts.
type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(svc *services.PostService) *PostHandler {
	return &PostHandler{postService: svc}
}

// CreatePost POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID      string   `json:"projectId"`
		TargetPlatform string   `json:"targetPlatform,omitempty"`
		PostType       string   `json:"postType,omitempty"`
		ContentPieces  []string `json:"contentPieces,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	p, err := h.postService.CreatePost(r.Context(), &model.Post{
		ProjectID:      req.ProjectID,
		TargetPlatform: req.TargetPlatform,
		PostType:       req.PostType,
		ContentPieces:  req.ContentPieces,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, p)
}

// GetPost GET /api/posts/{postId}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	p, err := h.postService.GetPost(r.Context(), postID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if p == nil {
		respond.WriteNotFound(w, "post not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// UpdatePost PATCH /api/posts/{postId}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	var req struct {
		TargetPlatform *string `json:"targetPlatform,omitempty"`
		PostType       *string `json:"postType,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	p, err := h.postService.UpdatePost(r.Context(), postID, repository.PostPatch{
		TargetPlatform: req.TargetPlatform,
		PostType:       req.PostType,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// SetContentPieces PUT /api/posts/{postId}/content
func (h *PostHandler) SetContentPieces(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	var req struct {
		ContentPieces []string `json:"contentPieces"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.postService.SetContentPieces(r.Context(), postID, req.ContentPieces); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMediaLink POST /api/posts/{postId}/media
func (h *PostHandler) AddMediaLink(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	var req struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.postService.AddMediaLink(r.Context(), postID, req.Link); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMediaLink DELETE /api/posts/{postId}/media
func (h *PostHandler) RemoveMediaLink(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	var req struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.postService.RemoveMediaLink(r.Context(), postID, req.Link); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMediaLinks GET /api/posts/{postId}/media
func (h *PostHandler) GetMediaLinks(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	links, err := h.postService.GetMediaLinks(r.Context(), postID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"mediaLinks": links, "count": len(links)})
}

// AddImagePrompt POST /api/posts/{postId}/image-prompts
func (h *PostHandler) AddImagePrompt(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.postService.AddImagePrompt(r.Context(), postID, req.Prompt); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveImagePrompt DELETE /api/posts/{postId}/image-prompts
func (h *PostHandler) RemoveImagePrompt(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.postService.RemoveImagePrompt(r.Context(), postID, req.Prompt); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetImagePrompts GET /api/posts/{postId}/image-prompts
func (h *PostHandler) GetImagePrompts(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	prompts, err := h.postService.GetImagePrompts(r.Context(), postID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"imagePrompts": prompts, "count": len(prompts)})
}

// GetLinkedConversations GET /api/posts/{postId}/conversations
func (h *PostHandler) GetLinkedConversations(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	ids, err := h.postService.GetConversationIDs(r.Context(), postID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"conversationIds": ids, "count": len(ids)})
}

// DeletePost DELETE /api/posts/{postId}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]
	if err := h.postService.DeletePost(r.Context(), postID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
