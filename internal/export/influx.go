// Package export writes periodic metrics snapshots to InfluxDB.
package export

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

// Measurement is the InfluxDB measurement holding snapshot points.
const Measurement = "sorting_metrics"

// AllOrganizations tags the platform-wide point.
const AllOrganizations = "all"

// PointWriter is satisfied by the InfluxDB blocking write API.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type SnapshotSource interface {
	Snapshot(ctx context.Context, organizationID *string) (model.MetricsSnapshot, error)
}

type OrganizationLister interface {
	List(ctx context.Context) ([]model.Organization, error)
}

// NewInfluxClient connects to InfluxDB and verifies its health.
func NewInfluxClient(ctx context.Context, url, token string) (influxdb2.Client, error) {
	client := influxdb2.NewClient(url, token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to influxdb: %w", err)
	}
	return client, nil
}

// Exporter writes one point per organization plus a platform-wide point.
type Exporter struct {
	writer  PointWriter
	metrics SnapshotSource
	orgs    OrganizationLister
	logger  zerolog.Logger
}

func NewExporter(writer PointWriter, metrics SnapshotSource, orgs OrganizationLister, logger zerolog.Logger) *Exporter {
	return &Exporter{
		writer:  writer,
		metrics: metrics,
		orgs:    orgs,
		logger:  logger.With().Str("component", "export").Logger(),
	}
}

// Export computes and writes the current snapshots. An organization whose
// snapshot fails is logged and skipped; the write itself is all or nothing.
func (e *Exporter) Export(ctx context.Context) error {
	orgs, err := e.orgs.List(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	points := make([]*write.Point, 0, len(orgs)+1)

	global, err := e.metrics.Snapshot(ctx, nil)
	if err != nil {
		return fmt.Errorf("export platform snapshot: %w", err)
	}
	points = append(points, SnapshotPoint(AllOrganizations, "", global))

	for _, org := range orgs {
		snap, err := e.metrics.Snapshot(ctx, &org.ID)
		if err != nil {
			e.logger.Warn().Err(err).Str("organization_id", org.ID).Msg("skipping organization snapshot")
			continue
		}
		points = append(points, SnapshotPoint(org.ID, org.Name, snap))
	}

	if err := e.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write %d points: %w", len(points), err)
	}
	e.logger.Debug().Int("points", len(points)).Msg("exported snapshots")
	return nil
}

// SnapshotPoint converts a snapshot into an InfluxDB point stamped with its
// computation time.
func SnapshotPoint(organizationID, organizationName string, snap model.MetricsSnapshot) *write.Point {
	tags := map[string]string{"organization_id": organizationID}
	if organizationName != "" {
		tags["organization"] = organizationName
	}
	ts := snap.ComputedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		Measurement,
		tags,
		map[string]interface{}{
			"total":          snap.Total,
			"recycle":        snap.Recycle,
			"compost":        snap.Compost,
			"trash":          snap.Trash,
			"unclassified":   snap.Unclassified,
			"diversion_rate": snap.DiversionRate,
			"co2_saved_kg":   snap.CO2SavedKg,
			"rate_per_hour":  snap.RatePerHour,
			"last_7_days":    snap.Last7Days,
			"last_30_days":   snap.Last30Days,
		},
		ts,
	)
}
