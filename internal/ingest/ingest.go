// Package ingest stores detections reported by sorting stations, either over
// MQTT directly from the stations or from the detection pipeline's Kafka topic.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

// DetectionStore persists a decoded detection.
type DetectionStore interface {
	Create(ctx context.Context, d *model.Detection) error
}

// Payload is the JSON body a station publishes for one detection.
type Payload struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Item      string     `json:"item"`
	DeviceID  string     `json:"device_id"`
	CreatedAt *time.Time `json:"created_at"`
}

// Decode parses a detection payload. fallbackDeviceID is used when the
// payload does not name its station, e.g. when the station is part of the
// MQTT topic or the Kafka message key.
func Decode(raw []byte, fallbackDeviceID string) (model.Detection, error) {
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&p); err != nil {
		return model.Detection{}, fmt.Errorf("decode detection payload: %w", err)
	}

	category, ok := model.ParseCategory(p.Category)
	if !ok {
		return model.Detection{}, fmt.Errorf("unknown category %q", p.Category)
	}

	deviceID := strings.TrimSpace(p.DeviceID)
	if deviceID == "" {
		deviceID = strings.TrimSpace(fallbackDeviceID)
	}
	if deviceID == "" {
		return model.Detection{}, errors.New("device_id missing")
	}

	d := model.Detection{
		ID:       strings.TrimSpace(p.ID),
		Category: string(category),
		Item:     strings.TrimSpace(p.Item),
		DeviceID: deviceID,
	}
	if p.CreatedAt != nil {
		d.CreatedAt = p.CreatedAt.UTC()
	}
	return d, nil
}

// Ingestor decodes raw messages and stores them.
type Ingestor struct {
	store  DetectionStore
	source string
	logger zerolog.Logger
}

func NewIngestor(store DetectionStore, source string, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		store:  store,
		source: source,
		logger: logger.With().Str("component", "ingest").Str("source", source).Logger(),
	}
}

// Handle decodes and stores one message. Malformed messages are reported as
// errors and counted, never retried.
func (i *Ingestor) Handle(ctx context.Context, raw []byte, fallbackDeviceID string) error {
	d, err := Decode(raw, fallbackDeviceID)
	if err != nil {
		metrics.IngestDetectionsTotal.WithLabelValues(i.source, "invalid").Inc()
		i.logger.Warn().Err(err).Msg("dropping malformed detection")
		return err
	}

	if err := i.store.Create(ctx, &d); err != nil {
		metrics.IngestDetectionsTotal.WithLabelValues(i.source, "error").Inc()
		i.logger.Error().Err(err).Str("device_id", d.DeviceID).Msg("failed to store detection")
		return err
	}

	metrics.IngestDetectionsTotal.WithLabelValues(i.source, "success").Inc()
	i.logger.Debug().Str("id", d.ID).Str("device_id", d.DeviceID).Str("category", d.Category).Msg("stored detection")
	return nil
}
