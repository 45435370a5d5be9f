// Package live keeps a view's metrics snapshot current.
//
// A Controller owns one view's snapshot. It refreshes on start, on change
// notifications from its data source and, optionally, on a randomized timer.
// At most one fetch runs at a time; triggers that arrive while a fetch is in
// flight coalesce into a single follow-up fetch.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/notify"
)

// State is the controller's refresh state.
type State int

const (
	StateIdle State = iota
	StateRefreshing
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchFunc produces a fresh snapshot. It must honor ctx cancellation.
type FetchFunc func(ctx context.Context) (model.MetricsSnapshot, error)

// Rand is the random source for timer intervals. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// Status is the controller's observable state. Snapshot is the last good
// snapshot, kept when a later refresh fails. Err is set only in StateFailed.
type Status struct {
	State    State
	Snapshot model.MetricsSnapshot
	Err      error
}

// Options configures a Controller. The zero value refreshes only on Start
// and Trigger.
type Options struct {
	// Source and Tables select the change notifications that trigger a refresh.
	Source notify.Subscriber
	Tables []string

	// TimerMin and TimerMax bound the randomized refresh interval. A zero
	// TimerMax disables the timer.
	TimerMin time.Duration
	TimerMax time.Duration

	Clock  clock.Clock
	Rand   Rand
	Logger zerolog.Logger
}

// Controller owns one view's snapshot and refresh lifecycle.
type Controller struct {
	fetch FetchFunc
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	snapshot model.MetricsSnapshot
	err      error
	pending  bool
	started  bool
	closed   bool
	subs     []notify.Subscription
	updates  chan Status

	timerDone chan struct{}
}

// New returns an idle controller with a zero snapshot. Nothing runs until
// Start. A timer without a Rand is disabled.
func New(fetch FetchFunc, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.TimerMax > 0 && opts.Rand == nil {
		opts.TimerMax = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetch:   fetch,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan Status, 1),
	}
}

// Start subscribes to the data source, arms the timer and runs the initial
// fetch. Calling Start more than once, or after Close, does nothing.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	metrics.LiveViewsActive.Inc()

	if c.opts.Source != nil {
		for _, table := range c.opts.Tables {
			c.subs = append(c.subs, c.opts.Source.Subscribe(table, c.Trigger))
		}
	}
	if c.opts.TimerMax > 0 {
		c.timerDone = make(chan struct{})
		go c.timerLoop()
	}
	c.mu.Unlock()

	c.Trigger()
}

// Trigger requests a refresh. If a fetch is already running, exactly one
// more fetch runs after it completes.
func (c *Controller) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.state == StateRefreshing {
		c.pending = true
		return
	}
	c.state = StateRefreshing
	c.err = nil
	go c.refresh()
}

func (c *Controller) refresh() {
	for {
		snap, err := c.fetch(c.ctx)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.state = StateFailed
			c.err = err
			c.opts.Logger.Warn().Err(err).Msg("live refresh failed")
		} else {
			c.state = StateIdle
			c.snapshot = snap
			c.err = nil
		}
		metrics.LiveRefreshTotal.WithLabelValues(metrics.Result(err)).Inc()
		c.publishLocked(c.statusLocked())

		again := c.pending
		c.pending = false
		if again {
			c.state = StateRefreshing
			c.err = nil
		}
		c.mu.Unlock()

		if !again {
			return
		}
	}
}

// Status returns the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Updates delivers the status after every completed fetch. Only the most
// recent unread status is kept. The channel is closed by Close.
func (c *Controller) Updates() <-chan Status {
	return c.updates
}

// Close stops the timer, cancels any in-flight fetch, releases every
// subscription and closes the updates channel. The state no longer changes
// after Close returns. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	if c.started {
		metrics.LiveViewsActive.Dec()
	}
	close(c.updates)
	c.mu.Unlock()

	c.cancel()
	for _, sub := range subs {
		sub.Close()
	}
	if c.timerDone != nil {
		<-c.timerDone
	}
}

func (c *Controller) statusLocked() Status {
	return Status{State: c.state, Snapshot: c.snapshot, Err: c.err}
}

// publishLocked replaces any unread status with st. Callers hold c.mu, which
// makes them the only sender.
func (c *Controller) publishLocked(st Status) {
	select {
	case c.updates <- st:
		return
	default:
	}
	select {
	case <-c.updates:
	default:
	}
	c.updates <- st
}

func (c *Controller) timerLoop() {
	defer close(c.timerDone)
	for {
		t := c.opts.Clock.Timer(c.nextInterval())
		select {
		case <-c.ctx.Done():
			t.Stop()
			return
		case <-t.C:
			c.Trigger()
		}
	}
}

// nextInterval draws uniformly from [TimerMin, TimerMax].
func (c *Controller) nextInterval() time.Duration {
	span := c.opts.TimerMax - c.opts.TimerMin
	if span <= 0 {
		return c.opts.TimerMax
	}
	return c.opts.TimerMin + time.Duration(c.opts.Rand.Float64()*float64(span))
}
