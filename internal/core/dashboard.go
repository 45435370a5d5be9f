package core

import (
	"context"
	"fmt"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

// Overview holds the platform-wide counts shown on the admin dashboard.
type Overview struct {
	Organizations           int                        `json:"organizations"`
	Stations                int                        `json:"stations"`
	StationsActive          int                        `json:"stations_active"`
	StationsMaintenance     int                        `json:"stations_maintenance"`
	Users                   int                        `json:"users"`
	Admins                  int                        `json:"admins"`
	Clients                 int                        `json:"clients"`
	UnassignedStations      int                        `json:"unassigned_stations"`
	StationsPerOrganization []OrganizationStationCount `json:"stations_per_organization"`
	StationsByStatus        []StatusCount              `json:"stations_by_status"`
	Metrics                 model.MetricsView          `json:"metrics"`
}

// OrganizationStationCount holds the station count of one organization.
type OrganizationStationCount struct {
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Count            int    `json:"count"`
}

// StatusCount holds a count grouped by status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DashboardService queries the admin overview.
type DashboardService struct {
	db      DB
	metrics *MetricsService
}

func NewDashboardService(db DB, metrics *MetricsService) *DashboardService {
	return &DashboardService{db: db, metrics: metrics}
}

// Overview returns platform counts using a single query with CTEs, followed
// by the per-organization and per-status breakdowns and the global metrics.
func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	const countsQuery = `
		WITH org_count AS (
			SELECT count(*) AS c FROM organizations
		), station_count AS (
			SELECT count(*) AS c FROM stations
		), station_active AS (
			SELECT count(*) AS c FROM stations WHERE status = 'active'
		), station_maintenance AS (
			SELECT count(*) AS c FROM stations WHERE status = 'maintenance'
		), station_unassigned AS (
			SELECT count(*) AS c FROM stations WHERE organization_id IS NULL
		), user_count AS (
			SELECT count(*) AS c FROM profiles
		), admin_count AS (
			SELECT count(*) AS c FROM profiles WHERE role = 'admin'
		), client_count AS (
			SELECT count(*) AS c FROM profiles WHERE role = 'client'
		)
		SELECT
			(SELECT c FROM org_count),
			(SELECT c FROM station_count),
			(SELECT c FROM station_active),
			(SELECT c FROM station_maintenance),
			(SELECT c FROM station_unassigned),
			(SELECT c FROM user_count),
			(SELECT c FROM admin_count),
			(SELECT c FROM client_count)`

	ov := &Overview{
		StationsPerOrganization: []OrganizationStationCount{},
		StationsByStatus:        []StatusCount{},
	}
	err := s.db.QueryRow(ctx, countsQuery).Scan(
		&ov.Organizations,
		&ov.Stations,
		&ov.StationsActive,
		&ov.StationsMaintenance,
		&ov.UnassignedStations,
		&ov.Users,
		&ov.Admins,
		&ov.Clients,
	)
	if err != nil {
		return nil, fetchErr("overview", fmt.Errorf("overview counts: %w", err))
	}

	// Stations per organization
	spoRows, err := s.db.Query(ctx,
		`SELECT o.id, o.name, count(s.id)
		 FROM organizations o LEFT JOIN stations s ON s.organization_id = o.id
		 GROUP BY o.id, o.name
		 ORDER BY count(s.id) DESC, o.name`)
	if err != nil {
		return nil, fetchErr("overview", fmt.Errorf("overview stations per organization: %w", err))
	}
	defer spoRows.Close()

	for spoRows.Next() {
		var oc OrganizationStationCount
		if err := spoRows.Scan(&oc.OrganizationID, &oc.OrganizationName, &oc.Count); err != nil {
			return nil, fetchErr("overview", fmt.Errorf("scan organization station count: %w", err))
		}
		ov.StationsPerOrganization = append(ov.StationsPerOrganization, oc)
	}
	if err := spoRows.Err(); err != nil {
		return nil, fetchErr("overview", fmt.Errorf("iterate organization station counts: %w", err))
	}

	// Stations by status
	sbsRows, err := s.db.Query(ctx,
		`SELECT status, count(*) FROM stations GROUP BY status ORDER BY count(*) DESC`)
	if err != nil {
		return nil, fetchErr("overview", fmt.Errorf("overview stations by status: %w", err))
	}
	defer sbsRows.Close()

	for sbsRows.Next() {
		var sc StatusCount
		if err := sbsRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fetchErr("overview", fmt.Errorf("scan status count: %w", err))
		}
		ov.StationsByStatus = append(ov.StationsByStatus, sc)
	}
	if err := sbsRows.Err(); err != nil {
		return nil, fetchErr("overview", fmt.Errorf("iterate status counts: %w", err))
	}

	snap, err := s.metrics.SnapshotForScope(ctx, scope.All())
	if err != nil {
		return nil, err
	}
	ov.Metrics = snap.View()

	return ov, nil
}
