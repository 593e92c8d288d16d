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

// CustomerHandler provides HTTP transport for customer workspaces.
type CustomerHandler struct {
	customerService *services.CustomerService
}

func NewCustomerHandler(svc *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: svc}
}

// CreateCustomer POST /api/customers
// The caller identity arrives as X-Actor-Id, resolved upstream.
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-Actor-Id")
	if actorID == "" {
		respond.WriteBadRequest(w, "X-Actor-Id header is required")
		return
	}
	var req struct {
		Name      string         `json:"name"`
		Industry  string         `json:"industry,omitempty"`
		AIContext map[string]any `json:"aiContext,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	c, err := h.customerService.CreateCustomer(r.Context(), &model.Customer{
		Name:        req.Name,
		OwnerUserID: actorID,
		Industry:    req.Industry,
		AIContext:   req.AIContext,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, c)
}

// GetCustomer GET /api/customers/{customerId}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerId"]
	c, err := h.customerService.GetCustomer(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if c == nil {
		respond.WriteNotFound(w, "customer not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// UpdateCustomer PATCH /api/customers/{customerId}
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerId"]
	var req struct {
		Name      *string        `json:"name,omitempty"`
		Industry  *string        `json:"industry,omitempty"`
		AIContext map[string]any `json:"aiContext,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	c, err := h.customerService.UpdateCustomer(r.Context(), customerID, repository.CustomerPatch{
		Name:      req.Name,
		Industry:  req.Industry,
		AIContext: req.AIContext,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, c)
}

// DeleteCustomer DELETE /api/customers/{customerId}
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerId"]
	if err := h.customerService.DeleteCustomer(r.Context(), customerID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPermissions GET /api/customers/{customerId}/permissions
func (h *CustomerHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerId"]
	perms, err := h.customerService.GetPermissions(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"permissions": perms, "count": len(perms)})
}

// SetPermission PUT /api/customers/{customerId}/permissions/{userId}
func (h *CustomerHandler) SetPermission(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Role model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.customerService.SetPermission(r.Context(), vars["customerId"], vars["userId"], req.Role); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemovePermission DELETE /api/customers/{customerId}/permissions/{userId}
func (h *CustomerHandler) RemovePermission(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.customerService.RemovePermission(r.Context(), vars["customerId"], vars["userId"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransferOwnership POST /api/customers/{customerId}/owner
func (h *CustomerHandler) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["customerId"]
	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.customerService.TransferOwnership(r.Context(), customerID, req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUserCustomers GET /api/users/{userId}/customers
func (h *CustomerHandler) ListUserCustomers(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if r.URL.Query().Get("details") == "true" {
		out, err := h.customerService.ListUserCustomersWithDetails(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		respond.WriteJSON(w, http.StatusOK, map[string]any{"customers": out, "count": len(out)})
		return
	}
	out, err := h.customerService.ListUserCustomers(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"customers": out, "count": len(out)})
}
