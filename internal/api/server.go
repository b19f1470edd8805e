package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civitas-app/civitas/internal/cache"
	"github.com/civitas-app/civitas/internal/config"
	"github.com/civitas-app/civitas/internal/orchestrator"
)

// Server wraps the HTTP server and mux for the API.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a new API server wired with all routes.
func NewServer(
	cfg *config.EnvConfig,
	o *orchestrator.Orchestrator,
	svc *cache.Service,
	registry *prometheus.Registry,
	startedAt time.Time,
) *Server {
	mux := http.NewServeMux()

	// Public (no auth): health, metrics, and the read API. Feed data is
	// public information.
	mux.Handle("GET /healthz", HandleHealthz())
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /api/v1/bundle", HandleGetBundle(o))
	mux.Handle("GET /api/v1/domains/{domain}", HandleGetDomain(o))
	mux.Handle("GET /api/v1/cameras/nearby", HandleCamerasNearby(o, cfg.NearbyLimit))
	mux.Handle("GET /api/v1/sirens/nearby", HandleSirensNearby(o, cfg.NearbyLimit))
	mux.Handle("GET /api/v1/status", HandleStatus(svc, cfg, startedAt))

	// Authenticated admin routes.
	admin := http.NewServeMux()
	admin.Handle("POST /api/v1/admin/refresh", HandleForceRefresh(o))
	admin.Handle("POST /api/v1/admin/cache/clear", HandleCacheClear(o))
	admin.Handle("POST /api/v1/admin/offline", HandleSetOffline(svc, o))
	mux.Handle("/api/v1/admin/", AuthMiddleware(cfg.AdminToken, admin))

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.ListenAddress, strconv.Itoa(cfg.APIPort)),
		Handler: mux,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}
