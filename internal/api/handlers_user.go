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

// UserHandler provides HTTP transport for user and subscription operations.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{userService: svc}
}

// CreateUser POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email          string `json:"email"`
		Name           string `json:"name"`
		ExternalAuthID string `json:"externalAuthId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	u, err := h.userService.CreateUser(r.Context(), &model.User{
		Email:          req.Email,
		Name:           req.Name,
		ExternalAuthID: req.ExternalAuthID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, u)
}

// GetUser GET /api/users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	u, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if u == nil {
		respond.WriteNotFound(w, "user not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// FindUserByEmail GET /api/users?email=...
func (h *UserHandler) FindUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respond.WriteBadRequest(w, "email query parameter is required")
		return
	}
	u, err := h.userService.FindUserByEmail(r.Context(), email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if u == nil {
		respond.WriteNotFound(w, "user not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// UpdateUser PATCH /api/users/{userId}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var req struct {
		Email          *string `json:"email,omitempty"`
		Name           *string `json:"name,omitempty"`
		ExternalAuthID *string `json:"externalAuthId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	u, err := h.userService.UpdateUser(r.Context(), userID, repository.UserPatch{
		Email:          req.Email,
		Name:           req.Name,
		ExternalAuthID: req.ExternalAuthID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// DeleteUser DELETE /api/users/{userId}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSubscription POST /api/subscriptions
func (h *UserHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		PlanType string `json:"planType"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	sub, err := h.userService.CreateSubscription(r.Context(), &model.Subscription{
		UserID:   req.UserID,
		PlanType: req.PlanType,
		Status:   req.Status,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, sub)
}

// GetUserSubscription GET /api/users/{userId}/subscription
func (h *UserHandler) GetUserSubscription(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	sub, err := h.userService.FindSubscriptionByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if sub == nil {
		respond.WriteNotFound(w, "subscription not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, sub)
}

// CancelSubscription DELETE /api/subscriptions/{subscriptionId}
func (h *UserHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	subID := mux.Vars(r)["subscriptionId"]
	if err := h.userService.CancelSubscription(r.Context(), subID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
