package handler

import (
	"context"
	"net/http"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/middleware"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
}

type Me struct {
	profiles ProfileGetter
}

func NewMe(profiles ProfileGetter) *Me {
	return &Me{profiles: profiles}
}

// Get returns the current authenticated user's profile.
func (h *Me) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing claims")
		return
	}

	profile, err := h.profiles.GetByID(r.Context(), claims.Sub)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, profile)
}
