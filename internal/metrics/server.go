package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFunc reports process-specific detail for the health endpoint.
type StatusFunc func() any

// NewServer serves /metrics and a JSON /healthz for processes that run
// without the API router, such as the feed simulator. status may be nil.
func NewServer(addr string, status StatusFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if status != nil {
			body["detail"] = status()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}
