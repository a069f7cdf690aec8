package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Router assembles the HTTP surface of the API.
type Router struct {
	config RouterConfig
	logger zerolog.Logger
}

// RouterConfig contains the handlers and cross-cutting middleware.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	CatalogHandler *CatalogHandler
	ReviewHandler  *ReviewHandler

	// AuthMiddleware resolves bearer tokens into request identities.
	AuthMiddleware func(http.Handler) http.Handler

	// Metrics is optional; nil disables the /metrics endpoint.
	Metrics *Metrics

	// MaxBodySize caps request bodies, 0 means no cap.
	MaxBodySize int64

	// HealthCheck reports backend liveness for /health.
	HealthCheck func() error

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		config: config,
		logger: config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler. All API routes live under
// /api/v1 and tolerate trailing slashes. Clients use GET, POST, PATCH
// and DELETE only; anything else is a 405.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.StripSlashes)
	r.Use(RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger(rt.config.Logger))
	if rt.config.Metrics != nil {
		r.Use(rt.config.Metrics.Middleware)
	}
	r.Use(MaxBodySize(rt.config.MaxBodySize))

	r.Get("/health", rt.handleHealth)
	if rt.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.config.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.config.AuthMiddleware)

		rt.config.AuthHandler.RegisterRoutes(r)
		rt.config.UserHandler.RegisterRoutes(r)
		rt.config.CatalogHandler.RegisterRoutes(r)
		rt.config.ReviewHandler.RegisterRoutes(r)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if rt.config.HealthCheck != nil {
		if err := rt.config.HealthCheck(); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
