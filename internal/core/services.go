package core

import (
	"time"

	"github.com/facebookgo/clock"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/aggregate"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

type Services struct {
	Station      *StationService
	Detection    *DetectionService
	ImpactFactor *ImpactFactorService
	Organization *OrganizationService
	Profile      *ProfileService
	Auth         *AuthService
	Metrics      *MetricsService
	Dashboard    *DashboardService
	Scope        *scope.Resolver
}

// Options configures the services that depend on more than the database.
type Options struct {
	JWTSecret      string
	JWTIssuer      string
	SessionEndHour int
	Location       *time.Location
	Clock          clock.Clock
}

func NewServices(db DB, opts Options) *Services {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	stations := NewStationService(db)
	detections := NewDetectionService(db)
	factors := NewImpactFactorService(db)
	profiles := NewProfileService(db)
	resolver := scope.NewResolver(stations)
	metrics := NewMetricsService(resolver, detections, factors,
		aggregate.New(opts.SessionEndHour, opts.Location), clk)

	return &Services{
		Station:      stations,
		Detection:    detections,
		ImpactFactor: factors,
		Organization: NewOrganizationService(db),
		Profile:      profiles,
		Auth:         NewAuthService(profiles, opts.JWTSecret, opts.JWTIssuer, clk),
		Metrics:      metrics,
		Dashboard:    NewDashboardService(db, metrics),
		Scope:        resolver,
	}
}
