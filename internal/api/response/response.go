package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/email"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteServiceError maps service errors to HTTP statuses. Data source and
// email provider failures are upstream errors; their details stay in the logs.
func WriteServiceError(w http.ResponseWriter, err error) {
	var (
		fetchErr *core.FetchError
		scopeErr *scope.ResolutionError
	)
	switch {
	case errors.Is(err, core.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.As(err, &scopeErr), errors.As(err, &fetchErr):
		WriteError(w, http.StatusBadGateway, "data source unavailable")
	case errors.Is(err, email.ErrSendFailed):
		WriteError(w, http.StatusBadGateway, "email delivery failed")
	default:
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
