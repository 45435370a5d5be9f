package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

func TestMetricsGet_ClientPinnedToOrganization(t *testing.T) {
	svc := &mockMetrics{}
	svc.On("Snapshot", mock.Anything, orgArg("org-1")).
		Return(model.MetricsSnapshot{Total: 4, Recycle: 2, Compost: 1, Trash: 1, DiversionRate: 75, CO2SavedKg: 0.5}, nil)

	// A client cannot widen its view with organization_id.
	req := withClaims(newRequest(http.MethodGet, "/api/v1/metrics?organization_id=org-2", nil), clientClaims("org-1"))
	rec := httptest.NewRecorder()
	NewMetrics(svc).Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(4), body["total"])
	assert.Equal(t, "75.0%", body["diversion_rate_label"])
	assert.Equal(t, "0.5 kg", body["co2_saved_label"])
	svc.AssertExpectations(t)
}

func TestMetricsGet_AdminScopes(t *testing.T) {
	svc := &mockMetrics{}
	svc.On("Snapshot", mock.Anything, orgArg("")).Return(model.MetricsSnapshot{Total: 10}, nil).Once()
	svc.On("Snapshot", mock.Anything, orgArg("org-2")).Return(model.MetricsSnapshot{Total: 3}, nil).Once()
	h := NewMetrics(svc)

	rec := httptest.NewRecorder()
	h.Get(rec, withClaims(newRequest(http.MethodGet, "/api/v1/metrics", nil), adminClaims()))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, withClaims(newRequest(http.MethodGet, "/api/v1/metrics?organization_id=org-2", nil), adminClaims()))
	assert.Equal(t, http.StatusOK, rec.Code)

	svc.AssertExpectations(t)
}

func TestMetricsGet_ClientWithoutOrganization(t *testing.T) {
	svc := &mockMetrics{}
	rec := httptest.NewRecorder()
	NewMetrics(svc).Get(rec, withClaims(newRequest(http.MethodGet, "/api/v1/metrics", nil), clientClaims("")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "no organization assigned", decodeErrorResponse(rec)["error"])
	svc.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
}

func TestMetricsGet_UpstreamFailure(t *testing.T) {
	svc := &mockMetrics{}
	svc.On("Snapshot", mock.Anything, mock.Anything).
		Return(model.MetricsSnapshot{}, &scope.ResolutionError{OrganizationID: "org-1", Err: errors.New("down")})

	rec := httptest.NewRecorder()
	NewMetrics(svc).Get(rec, withClaims(newRequest(http.MethodGet, "/api/v1/metrics", nil), clientClaims("org-1")))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMetricsDaily(t *testing.T) {
	svc := &mockMetrics{}
	series := []model.DailyCount{{Date: "2024-05-05", Recycle: 1}, {Date: "2024-05-06", Trash: 2}}
	svc.On("Daily", mock.Anything, orgArg("org-1"), 14).Return(series, nil)

	rec := httptest.NewRecorder()
	NewMetrics(svc).Daily(rec, withClaims(newRequest(http.MethodGet, "/api/v1/metrics/daily?days=14", nil), clientClaims("org-1")))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []model.DailyCount `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, series, body.Items)
}

func TestMetricsDaily_DefaultAndInvalidDays(t *testing.T) {
	svc := &mockMetrics{}
	svc.On("Daily", mock.Anything, orgArg(""), 7).Return([]model.DailyCount{}, nil)
	h := NewMetrics(svc)

	rec := httptest.NewRecorder()
	h.Daily(rec, withClaims(newRequest(http.MethodGet, "/api/v1/metrics/daily", nil), adminClaims()))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Daily(rec, withClaims(newRequest(http.MethodGet, "/api/v1/metrics/daily?days=365", nil), adminClaims()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNumberOfCalls(t, "Daily", 1)
}

func TestStationList(t *testing.T) {
	resolver, stations := &mockResolver{}, &mockStations{}
	sc := scope.Scope{OrganizationID: "org-1", StationIDs: []string{"st-1"}}
	resolver.On("Resolve", mock.Anything, orgArg("org-1")).Return(sc, nil)
	stations.On("List", mock.Anything, sc).Return([]model.Station{{ID: "st-1", Name: "Lobby", Status: model.StatusActive}}, nil)

	rec := httptest.NewRecorder()
	NewStation(resolver, stations).List(rec, withClaims(newRequest(http.MethodGet, "/api/v1/stations", nil), clientClaims("org-1")))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []model.Station `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Lobby", body.Items[0].Name)
}

func TestStationList_FetchError(t *testing.T) {
	resolver, stations := &mockResolver{}, &mockStations{}
	resolver.On("Resolve", mock.Anything, orgArg("")).Return(scope.All(), nil)
	stations.On("List", mock.Anything, scope.All()).Return(nil, &core.FetchError{Source: "stations", Err: errors.New("timeout")})

	rec := httptest.NewRecorder()
	NewStation(resolver, stations).List(rec, withClaims(newRequest(http.MethodGet, "/api/v1/stations", nil), adminClaims()))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
