package handler

import (
	"context"
	"net/http"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/request"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

// MetricsReader is satisfied by *core.MetricsService.
type MetricsReader interface {
	Snapshot(ctx context.Context, organizationID *string) (model.MetricsSnapshot, error)
	Daily(ctx context.Context, organizationID *string, days int) ([]model.DailyCount, error)
}

type Metrics struct {
	svc MetricsReader
}

func NewMetrics(svc MetricsReader) *Metrics {
	return &Metrics{svc: svc}
}

// Get returns the caller's metrics snapshot with display labels.
func (h *Metrics) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authorizeOrganization(w, r)
	if !ok {
		return
	}

	snap, err := h.svc.Snapshot(r.Context(), orgID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, snap.View())
}

// Daily returns per-day category counts for the last ?days= days (default 7).
func (h *Metrics) Daily(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authorizeOrganization(w, r)
	if !ok {
		return
	}

	days, err := request.IntQuery(r, "days", 7, 1, 90)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.svc.Daily(r.Context(), orgID, days)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"items": series})
}
