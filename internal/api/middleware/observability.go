package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// unmatchedRoute labels requests no route pattern matched
const unmatchedRoute = "unmatched"

type routeKey struct{}

// routeHolder is filled in by RoutePattern once ServeMux has matched
type routeHolder struct {
	pattern string
}

// RoutePattern wraps a handler registered on a ServeMux and reports the
// matched pattern back to ObservabilityMiddleware. ServeMux sets Pattern
// only on the request it passes down, so the outer middleware cannot read it.
func RoutePattern(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			holder.pattern = r.Pattern
		}
		next.ServeHTTP(w, r)
	})
}

// ObservabilityMiddleware adds OpenTelemetry tracing and metrics to HTTP
// requests, labelled by route pattern rather than raw path.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder := &routeHolder{}
			ctx := context.WithValue(r.Context(), routeKey{}, holder)

			ctx, span := observability.StartSpan(ctx, "HTTP "+r.Method,
				attribute.String("http.method", r.Method),
				attribute.String("http.user_agent", r.UserAgent()),
			)
			defer span.End()

			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r.WithContext(ctx))

			route := holder.pattern
			if route == "" {
				route = unmatchedRoute
			}
			span.SetName(route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rw.statusCode),
			)
			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
