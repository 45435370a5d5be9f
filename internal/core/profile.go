package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type ProfileService struct {
	db DB
}

func NewProfileService(db DB) *ProfileService {
	return &ProfileService{db: db}
}

const profileColumns = `id, email, full_name, role, organization_id, password_hash, created_at`

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.OrganizationID, &p.PasswordHash, &p.CreatedAt)
	return p, err
}

// GetByID returns a single profile by ID.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &p, nil
}

// GetByEmail returns the profile registered under email (case-insensitive).
func (s *ProfileService) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", email, err)
	}
	return &p, nil
}

// ListReportRecipients returns the email addresses of an organization's users
// that receive the daily impact report.
func (s *ProfileService) ListReportRecipients(ctx context.Context, organizationID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT email FROM profiles WHERE organization_id = $1 ORDER BY email`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list report recipients for %s: %w", organizationID, err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// Create inserts a profile. PasswordHash must already be set; see HashPassword.
func (s *ProfileService) Create(ctx context.Context, p *model.Profile) error {
	if p.Role != model.RoleAdmin && p.Role != model.RoleClient {
		return fmt.Errorf("create profile: unknown role %q", p.Role)
	}
	if p.Role == model.RoleClient && p.OrganizationID == nil {
		return fmt.Errorf("create profile: client %s needs an organization", p.Email)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Email = strings.TrimSpace(p.Email)
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx,
		`INSERT INTO profiles (id, email, full_name, role, organization_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Email, p.FullName, p.Role, p.OrganizationID, p.PasswordHash, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert profile %s: %w", p.Email, err)
	}
	return nil
}
