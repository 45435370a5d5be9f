package handler

import (
	"errors"
	"net/http"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/middleware"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/request"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

var errNoOrganization = errors.New("no organization assigned")

// organizationFor returns the organization a caller may view. Clients are
// pinned to their own organization; admins see everything unless they narrow
// the view with ?organization_id=.
func organizationFor(r *http.Request, claims *model.JWTClaims) (*string, error) {
	if claims.Role == model.RoleAdmin {
		return request.OptionalQuery(r, "organization_id"), nil
	}
	if claims.OrganizationID == nil || *claims.OrganizationID == "" {
		return nil, errNoOrganization
	}
	return claims.OrganizationID, nil
}

// authorizeOrganization extracts claims and resolves the caller's
// organization. Returns false after writing an error response.
func authorizeOrganization(w http.ResponseWriter, r *http.Request) (*string, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		response.WriteError(w, http.StatusUnauthorized, "missing claims")
		return nil, false
	}

	orgID, err := organizationFor(r, claims)
	if err != nil {
		response.WriteError(w, http.StatusForbidden, err.Error())
		return nil, false
	}
	return orgID, true
}
