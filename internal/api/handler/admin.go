package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/request"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type OverviewReader interface {
	Overview(ctx context.Context) (*core.Overview, error)
}

type OrganizationReader interface {
	List(ctx context.Context) ([]model.Organization, error)
	Get(ctx context.Context, id string) (*model.Organization, error)
}

type SnapshotReader interface {
	Snapshot(ctx context.Context, organizationID *string) (model.MetricsSnapshot, error)
}

// Admin serves the platform-wide views. Routes are mounted behind
// middleware.RequireAdmin.
type Admin struct {
	dashboard     OverviewReader
	organizations OrganizationReader
	metrics       SnapshotReader
}

func NewAdmin(dashboard OverviewReader, organizations OrganizationReader, metrics SnapshotReader) *Admin {
	return &Admin{dashboard: dashboard, organizations: organizations, metrics: metrics}
}

func (h *Admin) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.Overview(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, overview)
}

func (h *Admin) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.organizations.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"items": orgs})
}

type organizationMetrics struct {
	Organization *model.Organization `json:"organization"`
	Metrics      model.MetricsView   `json:"metrics"`
}

// OrganizationMetrics returns one organization's snapshot. Unknown ids are
// rejected before any scope is resolved.
func (h *Admin) OrganizationMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := h.organizations.Get(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	snap, err := h.metrics.Snapshot(r.Context(), &org.ID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, organizationMetrics{Organization: org, Metrics: snap.View()})
}
