package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/request"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *model.Profile, error)
}

type Auth struct {
	svc Authenticator
}

func NewAuth(svc Authenticator) *Auth {
	return &Auth{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string         `json:"token"`
	Profile *model.Profile `json:"profile"`
}

// Login authenticates a user and returns a JWT token with the user's profile.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, profile, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		zerolog.Ctx(r.Context()).Info().Err(err).Str("email", req.Email).Msg("login failed")
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, loginResponse{Token: token, Profile: profile})
}
