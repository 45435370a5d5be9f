package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type OrganizationService struct {
	db DB
}

func NewOrganizationService(db DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// List returns all organizations ordered by name.
func (s *OrganizationService) List(ctx context.Context) ([]model.Organization, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, created_at FROM organizations ORDER BY name`)
	if err != nil {
		return nil, fetchErr("organizations", fmt.Errorf("list organizations: %w", err))
	}
	defer rows.Close()

	orgs := []model.Organization{}
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, fetchErr("organizations", fmt.Errorf("scan organization: %w", err))
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("organizations", fmt.Errorf("iterate organizations: %w", err))
	}
	return orgs, nil
}

// Get returns a single organization by ID.
func (s *OrganizationService) Get(ctx context.Context, id string) (*model.Organization, error) {
	var o model.Organization
	err := s.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM organizations WHERE id = $1`, id).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("organization %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fetchErr("organizations", fmt.Errorf("get organization %s: %w", id, err))
	}
	return &o, nil
}
