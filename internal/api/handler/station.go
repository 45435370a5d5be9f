package handler

import (
	"context"
	"net/http"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

type ScopeResolver interface {
	Resolve(ctx context.Context, organizationID *string) (scope.Scope, error)
}

type StationLister interface {
	List(ctx context.Context, sc scope.Scope) ([]model.Station, error)
}

type Station struct {
	resolver ScopeResolver
	stations StationLister
}

func NewStation(resolver ScopeResolver, stations StationLister) *Station {
	return &Station{resolver: resolver, stations: stations}
}

// List returns the stations visible to the caller.
func (h *Station) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authorizeOrganization(w, r)
	if !ok {
		return
	}

	sc, err := h.resolver.Resolve(r.Context(), orgID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	stations, err := h.stations.List(r.Context(), sc)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": stations})
}
