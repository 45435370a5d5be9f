// Package aggregate derives dashboard metrics from raw detection rows.
//
// Everything here is a pure function of its inputs: the caller supplies the
// rows, the impact-factor lookup and the current time.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

// DefaultSessionEndHour is the local hour at which the daily sorting session closes.
const DefaultSessionEndHour = 17

// InputError describes a detection row that cannot be aggregated. Such rows
// are skipped and counted in MetricsSnapshot.SkippedRows.
type InputError struct {
	DetectionID string
	Reason      string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("detection %q: %s", e.DetectionID, e.Reason)
}

// Validate returns an *InputError when d cannot take part in aggregation.
func Validate(d model.Detection) error {
	if d.CreatedAt.IsZero() {
		return &InputError{DetectionID: d.ID, Reason: "missing created_at"}
	}
	return nil
}

// Aggregator computes snapshots for a fixed session cutoff and time zone.
type Aggregator struct {
	sessionEndHour int
	loc            *time.Location
}

// New returns an Aggregator whose session window closes at sessionEndHour in loc.
// A nil loc means time.Local; a non-positive hour means DefaultSessionEndHour.
func New(sessionEndHour int, loc *time.Location) *Aggregator {
	if sessionEndHour <= 0 {
		sessionEndHour = DefaultSessionEndHour
	}
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{sessionEndHour: sessionEndHour, loc: loc}
}

// Aggregate computes a snapshot with the default session cutoff in time.Local.
func Aggregate(detections []model.Detection, impactFactors map[string]float64, now time.Time) model.MetricsSnapshot {
	return New(DefaultSessionEndHour, time.Local).Aggregate(detections, impactFactors, now)
}

// Aggregate computes the metrics snapshot for detections as of now.
func (a *Aggregator) Aggregate(detections []model.Detection, impactFactors map[string]float64, now time.Time) model.MetricsSnapshot {
	snap := model.MetricsSnapshot{ComputedAt: now}

	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)
	dayStart, sessionEnd := a.sessionBounds(now)

	var co2 float64
	var sessionCount int
	var sessionStart time.Time

	for _, d := range detections {
		if err := Validate(d); err != nil {
			snap.SkippedRows++
			continue
		}

		snap.Total++
		category, known := model.ParseCategory(d.Category)
		switch {
		case !known:
			snap.Unclassified++
		case category == model.CategoryRecycle:
			snap.Recycle++
		case category == model.CategoryCompost:
			snap.Compost++
		case category == model.CategoryTrash:
			snap.Trash++
		}
		if known && category.Diverted() {
			co2 += impactFactors[d.Item]
		}

		if !d.CreatedAt.Before(weekAgo) {
			snap.Last7Days++
		}
		if !d.CreatedAt.Before(monthAgo) {
			snap.Last30Days++
		}

		local := d.CreatedAt.In(a.loc)
		if !local.Before(dayStart) && local.Before(dayStart.AddDate(0, 0, 1)) {
			sessionCount++
			if sessionStart.IsZero() || local.Before(sessionStart) {
				sessionStart = local
			}
		}
	}

	snap.AllTime = snap.Total
	snap.DiversionRate = DiversionRate(snap.Recycle, snap.Compost, snap.Total)
	snap.CO2SavedKg = roundTenth(co2)
	snap.RatePerHour = ratePerHour(sessionCount, sessionStart, sessionEnd, now)

	return snap
}

// FromCounts builds a snapshot from running category totals, as kept by
// feeds that never materialize individual rows. Period counts equal the total.
func FromCounts(recycle, compost, trash int, now time.Time) model.MetricsSnapshot {
	total := recycle + compost + trash
	return model.MetricsSnapshot{
		Total:         total,
		Recycle:       recycle,
		Compost:       compost,
		Trash:         trash,
		DiversionRate: DiversionRate(recycle, compost, total),
		Last7Days:     total,
		Last30Days:    total,
		AllTime:       total,
		ComputedAt:    now,
	}
}

// DiversionRate returns (recycle+compost)/total as a percentage rounded to one
// decimal, or 0 when total is 0.
func DiversionRate(recycle, compost, total int) float64 {
	if total <= 0 {
		return 0
	}
	return roundTenth(float64(recycle+compost) / float64(total) * 100)
}

// sessionBounds returns local midnight of now's day and the session cutoff on
// that day.
func (a *Aggregator) sessionBounds(now time.Time) (time.Time, time.Time) {
	local := now.In(a.loc)
	y, m, d := local.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, a.loc)
	return dayStart, time.Date(y, m, d, a.sessionEndHour, 0, 0, 0, a.loc)
}

func ratePerHour(count int, start, sessionEnd, now time.Time) int {
	if count == 0 || start.IsZero() || start.After(sessionEnd) {
		return 0
	}
	end := now
	if sessionEnd.Before(end) {
		end = sessionEnd
	}
	hours := end.Sub(start).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / hours))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
