package handler

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/middleware"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/live"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/notify"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/scope"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/simfeed"
)

// liveTables are the tables a metrics view depends on.
var liveTables = []string{"detections", "stations", "impact_factors"}

const writeTimeout = 5 * time.Second

// MetricsFetcher is satisfied by *core.MetricsService.
type MetricsFetcher interface {
	Fetcher(organizationID *string) func(context.Context) (model.MetricsSnapshot, error)
}

// LiveOptions configures the websocket views.
type LiveOptions struct {
	// OriginPatterns are host patterns allowed to open a socket.
	OriginPatterns []string
	// DemoMinInterval and DemoMaxInterval bound the simulated feed's ticks.
	DemoMinInterval time.Duration
	DemoMaxInterval time.Duration
	Clock           clock.Clock
	Logger          zerolog.Logger
}

// Live serves the websocket views. Every connection owns its controller
// and, for the demo, its simulated feed; both are disposed when it closes.
type Live struct {
	auth    middleware.TokenValidator
	metrics MetricsFetcher
	source  notify.Subscriber
	opts    LiveOptions
}

func NewLive(auth middleware.TokenValidator, metrics MetricsFetcher, source notify.Subscriber, opts LiveOptions) *Live {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Live{auth: auth, metrics: metrics, source: source, opts: opts}
}

type liveMessage struct {
	State   string            `json:"state"`
	Metrics model.MetricsView `json:"metrics"`
	Error   string            `json:"error,omitempty"`
	Recent  []model.Detection `json:"recent,omitempty"`
}

func newLiveMessage(st live.Status) liveMessage {
	msg := liveMessage{State: st.State.String(), Metrics: st.Snapshot.View()}
	if st.Err != nil {
		msg.Error = liveError(st.Err)
	}
	return msg
}

func liveError(err error) string {
	var (
		fetchErr *core.FetchError
		scopeErr *scope.ResolutionError
	)
	if errors.As(err, &fetchErr) || errors.As(err, &scopeErr) {
		return "data source unavailable"
	}
	return "refresh failed"
}

// Metrics streams the caller's metrics, refreshed on every change to the
// tables they depend on. Browsers cannot set headers on a websocket, so the
// token comes from the query string.
func (h *Live) Metrics(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	orgID, err := organizationFor(r, claims)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	conn, err := h.accept(w, r)
	if err != nil {
		return
	}

	ctrl := live.New(h.metrics.Fetcher(orgID), live.Options{
		Source: h.source,
		Tables: liveTables,
		Clock:  h.opts.Clock,
		Logger: h.logger(r).With().Str("user_id", claims.Sub).Logger(),
	})
	h.serve(r.Context(), conn, ctrl, nil)
}

// Demo streams a simulated feed for the public landing page.
func (h *Live) Demo(w http.ResponseWriter, r *http.Request) {
	conn, err := h.accept(w, r)
	if err != nil {
		return
	}

	feed := simfeed.New(demoStart, simfeed.Options{
		MinInterval: h.opts.DemoMinInterval,
		MaxInterval: h.opts.DemoMaxInterval,
		Clock:       h.opts.Clock,
		Rand:        newRand(),
	})
	ctrl := live.New(feed.Snapshot, live.Options{
		Source: feed,
		Tables: []string{simfeed.Table},
		Clock:  h.opts.Clock,
		Logger: h.logger(r),
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go feed.Run(ctx)

	h.serve(ctx, conn, ctrl, feed.Recent)
}

// demoStart seeds the demo with plausible totals in the feed's proportions.
var demoStart = simfeed.Totals{Recycle: 1250, Compost: 1000, Trash: 2750}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (h *Live) accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		log := h.logger(r)
		log.Warn().Err(err).Msg("websocket accept failed")
		return nil, err
	}
	return conn, nil
}

func (h *Live) logger(r *http.Request) zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l.With().Str("component", "live").Logger()
	}
	return h.opts.Logger.With().Str("component", "live").Logger()
}

// serve pushes every controller update until the client disconnects, then
// closes the controller.
func (h *Live) serve(ctx context.Context, conn *websocket.Conn, ctrl *live.Controller, recent func() []model.Detection) {
	defer conn.CloseNow()
	defer ctrl.Close()

	ctx = conn.CloseRead(ctx)
	ctrl.Start()

	err := stream(ctx, conn, ctrl.Updates(), recent)
	if err == nil || errors.Is(err, context.Canceled) {
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func stream(ctx context.Context, conn *websocket.Conn, updates <-chan live.Status, recent func() []model.Detection) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			msg := newLiveMessage(st)
			if recent != nil {
				msg.Recent = recent()
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, msg)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
