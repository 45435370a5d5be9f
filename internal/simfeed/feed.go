// Package simfeed is a closed-loop source of synthetic detections for the
// public demo dashboard. It needs no database: it keeps running category
// totals and announces every new detection on its own bus.
package simfeed

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/aggregate"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/live"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/notify"
)

// Table is the table name announced on every tick.
const Table = "detections"

// DeviceID is the station id stamped on synthetic detections.
const DeviceID = "demo-station"

const recentSize = 10

// Tick interval bounds used when Options leaves them unset or non-positive.
const (
	DefaultMinInterval = 2 * time.Second
	DefaultMaxInterval = 4 * time.Second
)

// Category thresholds on a uniform draw in [0,1).
const (
	trashBelow   = 0.55
	recycleBelow = 0.80
)

var items = map[model.Category]string{
	model.CategoryRecycle: "plastic bottle",
	model.CategoryCompost: "food scraps",
	model.CategoryTrash:   "wrapper",
}

// Classify maps a uniform draw to a category: 55% trash, 25% recycle, 20% compost.
func Classify(u float64) model.Category {
	switch {
	case u < trashBelow:
		return model.CategoryTrash
	case u < recycleBelow:
		return model.CategoryRecycle
	default:
		return model.CategoryCompost
	}
}

// Totals are the running category counts.
type Totals struct {
	Recycle int `json:"recycle"`
	Compost int `json:"compost"`
	Trash   int `json:"trash"`
}

func (t Totals) Total() int {
	return t.Recycle + t.Compost + t.Trash
}

// Options configures a Feed. Zero values take the defaults: a 2-4s tick,
// the wall clock and a randomly seeded source.
type Options struct {
	MinInterval time.Duration
	MaxInterval time.Duration
	Clock       clock.Clock
	Rand        live.Rand
}

// Feed appends one synthetic detection per randomized tick.
type Feed struct {
	*notify.Bus

	opts Options

	mu     sync.Mutex
	totals Totals
	recent []model.Detection
}

// New returns a feed that starts from the given totals.
func New(start Totals, opts Options) *Feed {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = DefaultMaxInterval
	}
	if opts.MaxInterval < opts.MinInterval {
		opts.MaxInterval = opts.MinInterval
	}
	return &Feed{
		Bus:    notify.NewBus(),
		opts:   opts,
		totals: start,
	}
}

// Tick appends exactly one detection and notifies subscribers.
func (f *Feed) Tick() model.Detection {
	f.mu.Lock()
	category := Classify(f.opts.Rand.Float64())
	switch category {
	case model.CategoryTrash:
		f.totals.Trash++
	case model.CategoryRecycle:
		f.totals.Recycle++
	case model.CategoryCompost:
		f.totals.Compost++
	}
	d := model.Detection{
		ID:        uuid.New().String(),
		Category:  string(category),
		Item:      items[category],
		DeviceID:  DeviceID,
		CreatedAt: f.opts.Clock.Now(),
	}
	f.recent = append(f.recent, d)
	if len(f.recent) > recentSize {
		f.recent = f.recent[len(f.recent)-recentSize:]
	}
	f.mu.Unlock()

	f.Publish(Table)
	return d
}

// Totals returns the running counts.
func (f *Feed) Totals() Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals
}

// Recent returns up to the last ten detections, newest last.
func (f *Feed) Recent() []model.Detection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Detection(nil), f.recent...)
}

// Snapshot derives metrics from the running totals. It never fails and has
// the signature of a live view's fetch function.
func (f *Feed) Snapshot(context.Context) (model.MetricsSnapshot, error) {
	t := f.Totals()
	return aggregate.FromCounts(t.Recycle, t.Compost, t.Trash, f.opts.Clock.Now()), nil
}

// Run ticks at uniformly random intervals between MinInterval and
// MaxInterval until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	for {
		t := f.opts.Clock.Timer(f.nextInterval())
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
			f.Tick()
		}
	}
}

func (f *Feed) nextInterval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	span := f.opts.MaxInterval - f.opts.MinInterval
	if span <= 0 {
		return f.opts.MinInterval
	}
	return f.opts.MinInterval + time.Duration(f.opts.Rand.Float64()*float64(span))
}
