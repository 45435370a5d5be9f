package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
)

type DetectionService struct {
	db DB
}

func NewDetectionService(db DB) *DetectionService {
	return &DetectionService{db: db}
}

// ListInScope returns the detections produced by the scope's stations. A
// restricted scope without stations returns an empty list without querying,
// so an empty tenant can never read unfiltered rows.
func (s *DetectionService) ListInScope(ctx context.Context, sc scope.Scope) ([]model.Detection, error) {
	if sc.Empty() {
		return []model.Detection{}, nil
	}

	var (
		rows pgx.Rows
		err  error
	)
	if sc.Unrestricted {
		rows, err = s.db.Query(ctx,
			`SELECT id, category, item, device_id, created_at FROM detections ORDER BY created_at`)
	} else {
		rows, err = s.db.Query(ctx,
			`SELECT id, category, item, device_id, created_at FROM detections
			 WHERE device_id = ANY($1) ORDER BY created_at`, sc.StationIDs)
	}
	if err != nil {
		return nil, fetchErr("detections", fmt.Errorf("list detections: %w", err))
	}
	defer rows.Close()

	detections := []model.Detection{}
	for rows.Next() {
		var (
			d         model.Detection
			item      *string
			createdAt *time.Time
		)
		if err := rows.Scan(&d.ID, &d.Category, &item, &d.DeviceID, &createdAt); err != nil {
			return nil, fetchErr("detections", fmt.Errorf("scan detection: %w", err))
		}
		if item != nil {
			d.Item = *item
		}
		// A NULL created_at stays zero; the aggregator skips such rows.
		if createdAt != nil {
			d.CreatedAt = *createdAt
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("detections", fmt.Errorf("iterate detections: %w", err))
	}
	return detections, nil
}

// Create stores a detection reported by a station. An empty ID is replaced by
// a new UUID and a zero CreatedAt by the current time.
func (s *DetectionService) Create(ctx context.Context, d *model.Detection) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	category, ok := model.ParseCategory(d.Category)
	if !ok {
		return fmt.Errorf("create detection %s: unknown category %q", d.ID, d.Category)
	}
	d.Category = string(category)

	_, err := s.db.Exec(ctx,
		`INSERT INTO detections (id, category, item, device_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.Category, d.Item, d.DeviceID, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert detection %s: %w", d.ID, err)
	}
	return nil
}
