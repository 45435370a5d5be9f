package core

import (
	"context"
	"fmt"

	"github.com/facebookgo/clock"
	"golang.org/x/sync/errgroup"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/aggregate"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

// MetricsService resolves a view's scope, fetches its rows and aggregates them.
type MetricsService struct {
	resolver   *scope.Resolver
	detections *DetectionService
	factors    *ImpactFactorService
	aggregator *aggregate.Aggregator
	clock      clock.Clock
}

func NewMetricsService(resolver *scope.Resolver, detections *DetectionService, factors *ImpactFactorService, aggregator *aggregate.Aggregator, clk clock.Clock) *MetricsService {
	if clk == nil {
		clk = clock.New()
	}
	return &MetricsService{
		resolver:   resolver,
		detections: detections,
		factors:    factors,
		aggregator: aggregator,
		clock:      clk,
	}
}

// Snapshot computes the metrics for an organization, or for every station
// when organizationID is nil.
func (s *MetricsService) Snapshot(ctx context.Context, organizationID *string) (model.MetricsSnapshot, error) {
	sc, err := s.resolver.Resolve(ctx, organizationID)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	return s.SnapshotForScope(ctx, sc)
}

// SnapshotForScope computes the metrics for an already resolved scope.
func (s *MetricsService) SnapshotForScope(ctx context.Context, sc scope.Scope) (model.MetricsSnapshot, error) {
	detections, factors, err := s.fetch(ctx, sc)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	return s.aggregator.Aggregate(detections, factors, s.clock.Now()), nil
}

// Daily returns per-day category counts for the last days local days.
func (s *MetricsService) Daily(ctx context.Context, organizationID *string, days int) ([]model.DailyCount, error) {
	sc, err := s.resolver.Resolve(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	detections, err := s.detections.ListInScope(ctx, sc)
	if err != nil {
		return nil, err
	}
	return s.aggregator.DailySeries(detections, days, s.clock.Now()), nil
}

// Fetcher returns a fetch function bound to an organization, suitable for a
// live view's refresh controller.
func (s *MetricsService) Fetcher(organizationID *string) func(context.Context) (model.MetricsSnapshot, error) {
	return func(ctx context.Context) (model.MetricsSnapshot, error) {
		return s.Snapshot(ctx, organizationID)
	}
}

// fetch loads detections and impact factors concurrently.
func (s *MetricsService) fetch(ctx context.Context, sc scope.Scope) ([]model.Detection, map[string]float64, error) {
	var (
		detections []model.Detection
		factors    map[string]float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.detections.ListInScope(gctx, sc)
		if err != nil {
			return err
		}
		detections = rows
		return nil
	})
	g.Go(func() error {
		lookup, err := s.factors.Lookup(gctx)
		if err != nil {
			return err
		}
		factors = lookup
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}
	return detections, factors, nil
}
