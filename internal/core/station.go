package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

type StationService struct {
	db DB
}

func NewStationService(db DB) *StationService {
	return &StationService{db: db}
}

const stationColumns = `id, name, location, status, organization_id, created_at`

func scanStation(row pgx.Row) (model.Station, error) {
	var st model.Station
	err := row.Scan(&st.ID, &st.Name, &st.Location, &st.Status, &st.OrganizationID, &st.CreatedAt)
	return st, err
}

// ListIDsByOrganization returns the ids of every station owned by the organization.
func (s *StationService) ListIDsByOrganization(ctx context.Context, organizationID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id FROM stations WHERE organization_id = $1 ORDER BY id`, organizationID)
	if err != nil {
		return nil, fetchErr("stations", fmt.Errorf("list station ids for organization %s: %w", organizationID, err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fetchErr("stations", fmt.Errorf("scan station id: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("stations", fmt.Errorf("iterate station ids: %w", err))
	}
	return ids, nil
}

// List returns the stations visible in the scope.
func (s *StationService) List(ctx context.Context, sc scope.Scope) ([]model.Station, error) {
	if sc.Empty() {
		return []model.Station{}, nil
	}

	var (
		rows pgx.Rows
		err  error
	)
	if sc.Unrestricted {
		rows, err = s.db.Query(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY name`)
	} else {
		rows, err = s.db.Query(ctx,
			`SELECT `+stationColumns+` FROM stations WHERE id = ANY($1) ORDER BY name`, sc.StationIDs)
	}
	if err != nil {
		return nil, fetchErr("stations", fmt.Errorf("list stations: %w", err))
	}
	defer rows.Close()

	stations := []model.Station{}
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fetchErr("stations", fmt.Errorf("scan station: %w", err))
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("stations", fmt.Errorf("iterate stations: %w", err))
	}
	return stations, nil
}

// Get returns a single station by ID.
func (s *StationService) Get(ctx context.Context, id string) (*model.Station, error) {
	st, err := scanStation(s.db.QueryRow(ctx,
		`SELECT `+stationColumns+` FROM stations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("station %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fetchErr("stations", fmt.Errorf("get station %s: %w", id, err))
	}
	return &st, nil
}
