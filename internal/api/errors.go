package api

import (
	"net/http"

	"github.com/contentdesk/contentdesk/internal/api/respond"
	"github.com/contentdesk/contentdesk/internal/model"
)

// writeDomainError maps the repository error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case model.IsInvalidArgument(err):
		respond.WriteBadRequest(w, err.Error())
	case model.IsConflict(err):
		respond.WriteConflict(w, err.Error())
	case model.IsNotFound(err):
		respond.WriteNotFound(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
