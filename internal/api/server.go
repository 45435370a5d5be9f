package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/handler"
	mw "github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/middleware"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/config"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/core"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/email"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/notify"
)

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server does not build itself. Sender may be
// nil when email is not configured.
type Deps struct {
	DB       Pinger
	Services *core.Services
	Changes  notify.Subscriber
	Sender   email.Sender
}

type Server struct {
	router chi.Router
	logger zerolog.Logger
	deps   Deps
	cfg    *config.Config
}

func NewServer(logger zerolog.Logger, deps Deps, cfg *config.Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		deps:   deps,
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes() {
	svc := s.deps.Services

	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	auth := handler.NewAuth(svc.Auth)
	s.router.Post("/auth/login", auth.Login)

	contact := handler.NewContact(s.deps.Sender, s.cfg.MailFrom, s.cfg.ContactTo)
	s.router.Post("/contact", contact.Submit)

	// Websockets authenticate via query param, outside the JWT middleware.
	live := handler.NewLive(svc.Auth, svc.Metrics, s.deps.Changes, handler.LiveOptions{
		OriginPatterns:  originPatterns(s.cfg.CORSOrigins),
		DemoMinInterval: s.cfg.DemoMinInterval,
		DemoMaxInterval: s.cfg.DemoMaxInterval,
		Logger:          s.logger,
	})
	s.router.Get("/demo/live", live.Demo)
	s.router.Get("/api/v1/live", live.Metrics)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(svc.Auth))

		me := handler.NewMe(svc.Profile)
		r.Get("/me", me.Get)

		metrics := handler.NewMetrics(svc.Metrics)
		r.Get("/metrics", metrics.Get)
		r.Get("/metrics/daily", metrics.Daily)

		station := handler.NewStation(svc.Scope, svc.Station)
		r.Get("/stations", station.List)

		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireAdmin)

			admin := handler.NewAdmin(svc.Dashboard, svc.Organization, svc.Metrics)
			r.Get("/overview", admin.Overview)
			r.Get("/organizations", admin.ListOrganizations)
			r.Get("/organizations/{id}/metrics", admin.OrganizationMetrics)
		})
	})
}

// originPatterns turns CORS origins into the host patterns the websocket
// origin check expects.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.deps.DB.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
