package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/contentdesk/contentdesk/internal/api/respond"
	"github.com/contentdesk/contentdesk/internal/model"
	"github.com/contentdesk/contentdesk/internal/repository"
	"github.com/contentdesk/contentdesk/internal/services"
)

// ConversationHandler provides HTTP transport for conversations and messages.
type ConversationHandler struct {
	conversationService *services.ConversationService
}

func NewConversationHandler(svc *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: svc}
}

// CreateConversation POST /api/conversations
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string     `json:"projectId"`
		Title     string     `json:"title,omitempty"`
		Timestamp *time.Time `json:"timestamp,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	conv := &model.Conversation{ProjectID: req.ProjectID, Title: req.Title}
	if req.Timestamp != nil {
		conv.Timestamp = *req.Timestamp
	}
	created, err := h.conversationService.CreateConversation(r.Context(), conv)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, created)
}

// GetConversation GET /api/conversations/{conversationId}
// Returns metadata plus the full message log.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	conv, err := h.conversationService.GetConversation(r.Context(), conversationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if conv == nil {
		respond.WriteNotFound(w, "conversation not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, conv)
}

// UpdateConversation PATCH /api/conversations/{conversationId}
func (h *ConversationHandler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	var req struct {
		Title *string `json:"title,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	conv, err := h.conversationService.UpdateConversation(r.Context(), conversationID, repository.ConversationPatch{
		Title: req.Title,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, conv)
}

// AddMessage POST /api/conversations/{conversationId}/messages
func (h *ConversationHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	var req struct {
		Role      model.MessageRole `json:"role"`
		Content   string            `json:"content"`
		Timestamp *time.Time        `json:"timestamp,omitempty"`
		AuthorID  string            `json:"authorId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	msg := model.Message{Role: req.Role, Content: req.Content, AuthorID: req.AuthorID}
	if req.Timestamp != nil {
		msg.Timestamp = *req.Timestamp
	}
	stored, err := h.conversationService.AddMessage(r.Context(), conversationID, msg)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, stored)
}

// GetMessages GET /api/conversations/{conversationId}/messages?recent=N
// Without the recent parameter the full log is returned.
func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	if recent := r.URL.Query().Get("recent"); recent != "" {
		count, err := strconv.Atoi(recent)
		if err != nil {
			respond.WriteBadRequest(w, "recent must be an integer")
			return
		}
		msgs, err := h.conversationService.GetRecentMessages(r.Context(), conversationID, count)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)})
		return
	}
	msgs, err := h.conversationService.GetMessages(r.Context(), conversationID, 0, -1)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)})
}

// LinkPost PUT /api/conversations/{conversationId}/posts/{postId}
func (h *ConversationHandler) LinkPost(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.conversationService.LinkPost(r.Context(), vars["conversationId"], vars["postId"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkPost DELETE /api/conversations/{conversationId}/posts/{postId}
func (h *ConversationHandler) UnlinkPost(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.conversationService.UnlinkPost(r.Context(), vars["conversationId"], vars["postId"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLinkedPosts GET /api/conversations/{conversationId}/posts
func (h *ConversationHandler) GetLinkedPosts(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	ids, err := h.conversationService.GetPostIDs(r.Context(), conversationID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"postIds": ids, "count": len(ids)})
}

// DeleteConversation DELETE /api/conversations/{conversationId}
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	if err := h.conversationService.DeleteConversation(r.Context(), conversationID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
