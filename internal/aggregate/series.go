package aggregate

import (
	"time"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

const dateLayout = "2006-01-02"

// DailySeries buckets detections into per-day category counts for the last
// days local calendar days ending with now's day. Buckets are ordered oldest
// first and days with no detections are present with zero counts.
func (a *Aggregator) DailySeries(detections []model.Detection, days int, now time.Time) []model.DailyCount {
	if days <= 0 {
		return []model.DailyCount{}
	}

	today, _ := a.sessionBounds(now)
	first := today.AddDate(0, 0, -(days - 1))

	series := make([]model.DailyCount, days)
	index := make(map[string]int, days)
	for i := range series {
		date := first.AddDate(0, 0, i).Format(dateLayout)
		series[i].Date = date
		index[date] = i
	}

	for _, d := range detections {
		if Validate(d) != nil {
			continue
		}
		i, ok := index[d.CreatedAt.In(a.loc).Format(dateLayout)]
		if !ok {
			continue
		}
		category, _ := model.ParseCategory(d.Category)
		switch category {
		case model.CategoryRecycle:
			series[i].Recycle++
		case model.CategoryCompost:
			series[i].Compost++
		case model.CategoryTrash:
			series[i].Trash++
		}
	}

	return series
}
