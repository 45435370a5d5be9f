package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/metrics"
)

// Metrics counts requests per route pattern. Websocket sessions are timed
// separately so they do not skew request latencies.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := newStatusWriter(w)

		next.ServeHTTP(ww, r)

		route := routeLabel(r)
		elapsed := time.Since(start).Seconds()
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		if ww.hijacked {
			metrics.WebsocketSessionSeconds.WithLabelValues(route).Observe(elapsed)
			return
		}
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed)
	})
}

// routeLabel is the matched chi pattern, so path parameters do not explode
// label cardinality.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unmatched"
}
