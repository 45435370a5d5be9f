package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/notify"
)

const waitFor = time.Second

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

// gatedFetch blocks every fetch until release is called and counts calls.
type gatedFetch struct {
	calls   atomic.Int32
	entered chan struct{}
	gate    chan struct{}

	mu      sync.Mutex
	results []error
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{entered: make(chan struct{}, 16), gate: make(chan struct{}, 16)}
}

func (g *gatedFetch) fetch(ctx context.Context) (model.MetricsSnapshot, error) {
	n := g.calls.Add(1)
	g.entered <- struct{}{}
	select {
	case <-g.gate:
	case <-ctx.Done():
		return model.MetricsSnapshot{}, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.results) > 0 {
		err := g.results[0]
		g.results = g.results[1:]
		if err != nil {
			return model.MetricsSnapshot{}, err
		}
	}
	return model.MetricsSnapshot{Total: int(n)}, nil
}

func (g *gatedFetch) release() { g.gate <- struct{}{} }

func (g *gatedFetch) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(waitFor):
		t.Fatal("fetch did not start")
	}
}

func waitStatus(t *testing.T, c *Controller) Status {
	t.Helper()
	select {
	case st, ok := <-c.Updates():
		require.True(t, ok, "updates channel closed")
		return st
	case <-time.After(waitFor):
		t.Fatal("no status update")
		return Status{}
	}
}

func TestController_InitialStateIsIdleZero(t *testing.T) {
	c := New(newGatedFetch().fetch, Options{Logger: zerolog.Nop()})
	defer c.Close()

	st := c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, model.MetricsSnapshot{}, st.Snapshot)
	assert.NoError(t, st.Err)
}

func TestController_StartFetchesOnce(t *testing.T) {
	g := newGatedFetch()
	c := New(g.fetch, Options{Logger: zerolog.Nop()})
	defer c.Close()

	c.Start()
	g.waitEntered(t)
	assert.Equal(t, StateRefreshing, c.Status().State)

	g.release()
	st := waitStatus(t, c)
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, 1, st.Snapshot.Total)

	c.Start()
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestController_TriggersDuringRefreshCoalesce(t *testing.T) {
	g := newGatedFetch()
	c := New(g.fetch, Options{Logger: zerolog.Nop()})
	defer c.Close()

	c.Start()
	g.waitEntered(t)

	for range 5 {
		c.Trigger()
	}
	g.release()
	waitStatus(t, c)

	g.waitEntered(t)
	g.release()
	require.Eventually(t, func() bool {
		return c.Status().State == StateIdle && c.Status().Snapshot.Total == 2
	}, waitFor, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestController_FailureKeepsStaleSnapshot(t *testing.T) {
	g := newGatedFetch()
	g.results = []error{nil, errors.New("fetch detections: connection reset")}
	c := New(g.fetch, Options{Logger: zerolog.Nop()})
	defer c.Close()

	c.Start()
	g.waitEntered(t)
	g.release()
	first := waitStatus(t, c)
	require.Equal(t, StateIdle, first.State)

	c.Trigger()
	g.waitEntered(t)
	g.release()
	st := waitStatus(t, c)

	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, first.Snapshot, st.Snapshot)
	assert.EqualError(t, st.Err, "fetch detections: connection reset")

	c.Trigger()
	g.waitEntered(t)
	g.release()
	st = waitStatus(t, c)
	assert.Equal(t, StateIdle, st.State)
	assert.NoError(t, st.Err)
	assert.Equal(t, 3, st.Snapshot.Total)
}

func TestController_RefreshAfterFailureClearsError(t *testing.T) {
	g := newGatedFetch()
	g.results = []error{errors.New("fetch detections: connection reset")}
	c := New(g.fetch, Options{Logger: zerolog.Nop()})
	defer c.Close()

	c.Start()
	g.waitEntered(t)
	g.release()
	st := waitStatus(t, c)
	require.Equal(t, StateFailed, st.State)
	require.Error(t, st.Err)

	c.Trigger()
	g.waitEntered(t)
	st = c.Status()
	assert.Equal(t, StateRefreshing, st.State)
	assert.NoError(t, st.Err)

	g.release()
	st = waitStatus(t, c)
	assert.Equal(t, StateIdle, st.State)
	assert.NoError(t, st.Err)
}

func TestController_ChangeNotificationTriggersRefresh(t *testing.T) {
	bus := notify.NewBus()
	g := newGatedFetch()
	c := New(g.fetch, Options{Source: bus, Tables: []string{"detections", "stations"}, Logger: zerolog.Nop()})
	defer c.Close()

	c.Start()
	g.waitEntered(t)
	g.release()
	waitStatus(t, c)

	bus.Publish("impact_factors")
	bus.Publish("detections")
	g.waitEntered(t)
	g.release()
	st := waitStatus(t, c)
	assert.Equal(t, 2, st.Snapshot.Total)
	assert.Equal(t, int32(2), g.calls.Load())
}

func TestController_TimerRefreshesAndRearms(t *testing.T) {
	clk := clock.NewMock()
	g := newGatedFetch()
	c := New(g.fetch, Options{
		TimerMin: 2 * time.Second,
		TimerMax: 4 * time.Second,
		Clock:    clk,
		Rand:     fixedRand(0.5),
		Logger:   zerolog.Nop(),
	})
	defer c.Close()

	c.Start()
	g.waitEntered(t)
	g.release()
	waitStatus(t, c)

	clk.Wait(clock.Calls{Timer: 1})
	clk.Add(2999 * time.Millisecond)
	assert.Equal(t, int32(1), g.calls.Load())

	clk.Add(time.Millisecond)
	g.waitEntered(t)
	g.release()
	waitStatus(t, c)

	clk.Wait(clock.Calls{Timer: 2})
	clk.Add(3 * time.Second)
	g.waitEntered(t)
	g.release()
	st := waitStatus(t, c)
	assert.Equal(t, 3, st.Snapshot.Total)
}

func TestController_NextIntervalBounds(t *testing.T) {
	for _, tc := range []struct {
		r    float64
		want time.Duration
	}{
		{0, 2 * time.Second},
		{0.25, 2500 * time.Millisecond},
		{0.999999, 3999998 * time.Microsecond},
	} {
		c := New(nil, Options{TimerMin: 2 * time.Second, TimerMax: 4 * time.Second, Rand: fixedRand(tc.r)})
		got := c.nextInterval()
		assert.GreaterOrEqual(t, got, 2*time.Second)
		assert.LessOrEqual(t, got, 4*time.Second)
		assert.InDelta(t, float64(tc.want), float64(got), float64(time.Microsecond))
	}
}

func TestController_TimerDisabledWithoutRand(t *testing.T) {
	c := New(newGatedFetch().fetch, Options{TimerMin: time.Second, TimerMax: 2 * time.Second})
	assert.Zero(t, c.opts.TimerMax)
}

func TestController_CloseReleasesEverything(t *testing.T) {
	bus := notify.NewBus()
	clk := clock.NewMock()
	g := newGatedFetch()
	c := New(g.fetch, Options{
		Source:   bus,
		Tables:   []string{"detections", "stations"},
		TimerMin: 2 * time.Second,
		TimerMax: 4 * time.Second,
		Clock:    clk,
		Rand:     fixedRand(0),
		Logger:   zerolog.Nop(),
	})

	c.Start()
	g.waitEntered(t)
	clk.Wait(clock.Calls{Timer: 1})
	require.Equal(t, 1, bus.Count("detections"))

	c.Close()
	c.Close()

	assert.Equal(t, 0, bus.Count("detections"))
	assert.Equal(t, 0, bus.Count("stations"))

	_, ok := <-c.Updates()
	assert.False(t, ok)

	// The in-flight fetch observes cancellation and its result is discarded.
	require.Eventually(t, func() bool { return c.Status().State == StateRefreshing }, waitFor, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateRefreshing, c.Status().State)

	c.Trigger()
	bus.Publish("detections")
	clk.Add(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestController_CloseBeforeStart(t *testing.T) {
	bus := notify.NewBus()
	g := newGatedFetch()
	c := New(g.fetch, Options{Source: bus, Tables: []string{"detections"}})

	c.Close()
	c.Start()

	assert.Equal(t, 0, bus.Count("detections"))
	assert.Equal(t, int32(0), g.calls.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "refreshing", StateRefreshing.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
