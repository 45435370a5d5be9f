package model

import "time"

type Profile struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	FullName       *string   `json:"full_name,omitempty" db:"full_name"`
	Role           string    `json:"role" db:"role"`
	OrganizationID *string   `json:"organization_id,omitempty" db:"organization_id"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the profile has the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
