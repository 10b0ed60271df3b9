package routes

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/therapistdirectory/internal/api/handlers"
	"github.com/zatekoja/therapistdirectory/internal/api/middleware"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(*http.Request) error

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	therapistHandler *handlers.TherapistHandler

	cacheMiddleware *middleware.CacheMiddleware
	rateLimiter     *middleware.RateLimiter
	metrics         *observability.Metrics
	allowedOrigins  []string
	healthChecks    map[string]HealthCheck
}

// Options carries the optional pieces of the middleware chain
type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	RateLimiter     *middleware.RateLimiter
	Metrics         *observability.Metrics
	AllowedOrigins  []string
	HealthChecks    map[string]HealthCheck
}

// NewRouter creates a new router
func NewRouter(therapistHandler *handlers.TherapistHandler, opts Options) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		therapistHandler: therapistHandler,
		cacheMiddleware:  opts.CacheMiddleware,
		rateLimiter:      opts.RateLimiter,
		metrics:          opts.Metrics,
		allowedOrigins:   opts.AllowedOrigins,
		healthChecks:     opts.HealthChecks,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.handle("GET /health", r.health)

	// Therapist endpoints
	r.handle("GET /api/therapists", r.therapistHandler.ListTherapists)
	r.handle("GET /api/therapists/suggest", r.therapistHandler.SuggestTherapists)
	r.handle("GET /api/therapists/{slug}", r.therapistHandler.GetTherapist)
	r.handle("POST /api/therapists", r.therapistHandler.CreateTherapist)
	r.handle("PATCH /api/therapists/{id}", r.therapistHandler.UpdateTherapist)
	r.handle("POST /api/therapists/{id}/publish", r.therapistHandler.PublishTherapist)
	r.handle("POST /api/therapists/{id}/unpublish", r.therapistHandler.UnpublishTherapist)

	// last wrap runs first
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	if r.rateLimiter != nil {
		handler = r.rateLimiter.Middleware(handler)
	}

	handler = middleware.Recovery(handler)

	// CORS wraps everything so headers are set even on cache hits and 429s
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.RoutePattern(h))
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	for name, check := range r.healthChecks {
		if err := check(req); err != nil {
			status[name] = err.Error()
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
