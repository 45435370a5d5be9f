package model

import "time"

type Station struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Location       *string   `json:"location,omitempty" db:"location"`
	Status         string    `json:"status" db:"status"`
	OrganizationID *string   `json:"organization_id,omitempty" db:"organization_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
