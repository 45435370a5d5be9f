// Package scope narrows dashboard data to a tenant's stations.
package scope

import (
	"context"
	"fmt"
)

// StationLister returns the ids of the stations owned by an organization.
type StationLister interface {
	ListIDsByOrganization(ctx context.Context, organizationID string) ([]string, error)
}

// Scope is the set of stations a view may see. The zero value is an empty
// restricted scope, which sees nothing.
type Scope struct {
	OrganizationID string
	Unrestricted   bool
	StationIDs     []string
}

// All is the unrestricted scope used by admin views.
func All() Scope {
	return Scope{Unrestricted: true}
}

// Empty reports whether the scope can match no detections at all.
func (s Scope) Empty() bool {
	return !s.Unrestricted && len(s.StationIDs) == 0
}

// ResolutionError is returned when an organization's stations cannot be
// resolved. Callers must not fall back to an unrestricted scope.
type ResolutionError struct {
	OrganizationID string
	Err            error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve scope for organization %s: %v", e.OrganizationID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type Resolver struct {
	stations StationLister
}

func NewResolver(stations StationLister) *Resolver {
	return &Resolver{stations: stations}
}

// Resolve maps an optional organization to its scope. A nil organization is
// unrestricted.
func (r *Resolver) Resolve(ctx context.Context, organizationID *string) (Scope, error) {
	if organizationID == nil {
		return All(), nil
	}

	ids, err := r.stations.ListIDsByOrganization(ctx, *organizationID)
	if err != nil {
		return Scope{}, &ResolutionError{OrganizationID: *organizationID, Err: err}
	}
	if ids == nil {
		ids = []string{}
	}

	return Scope{OrganizationID: *organizationID, StationIDs: ids}, nil
}
