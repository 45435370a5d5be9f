package model

import (
	"fmt"
	"time"
)

// MetricsSnapshot is the derived view of a set of detections. It is always
// recomputed wholesale; Recycle+Compost+Trash+Unclassified equals Total.
type MetricsSnapshot struct {
	Total        int `json:"total"`
	Recycle      int `json:"recycle"`
	Compost      int `json:"compost"`
	Trash        int `json:"trash"`
	Unclassified int `json:"unclassified"`

	// DiversionRate is a percentage rounded to one decimal.
	DiversionRate float64 `json:"diversion_rate"`
	// CO2SavedKg is rounded to one decimal.
	CO2SavedKg  float64 `json:"co2_saved_kg"`
	RatePerHour int     `json:"rate_per_hour"`

	Last7Days  int `json:"last_7_days"`
	Last30Days int `json:"last_30_days"`
	AllTime    int `json:"all_time"`

	// SkippedRows counts malformed input rows left out of every figure.
	SkippedRows int       `json:"skipped_rows"`
	ComputedAt  time.Time `json:"computed_at"`
}

// DiversionRateLabel renders the diversion rate for display, e.g. "50.0%".
// An empty snapshot renders as "0%".
func (s MetricsSnapshot) DiversionRateLabel() string {
	if s.Total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", s.DiversionRate)
}

// CO2SavedLabel renders the CO2 savings for display, e.g. "0.5 kg".
func (s MetricsSnapshot) CO2SavedLabel() string {
	return fmt.Sprintf("%.1f kg", s.CO2SavedKg)
}

// MetricsView is the JSON shape served to dashboards: the snapshot plus its
// display labels.
type MetricsView struct {
	MetricsSnapshot
	DiversionRateLabel string `json:"diversion_rate_label"`
	CO2SavedLabel      string `json:"co2_saved_label"`
}

// View returns the snapshot with its display labels attached.
func (s MetricsSnapshot) View() MetricsView {
	return MetricsView{
		MetricsSnapshot:    s,
		DiversionRateLabel: s.DiversionRateLabel(),
		CO2SavedLabel:      s.CO2SavedLabel(),
	}
}

// DailyCount is one bucket of the per-day category series used by charts.
type DailyCount struct {
	Date    string `json:"date"`
	Recycle int    `json:"recycle"`
	Compost int    `json:"compost"`
	Trash   int    `json:"trash"`
}
