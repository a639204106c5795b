// Package metrics exposes prometheus collectors for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainfeed_calls_total",
		Help: "Handled gateway calls.",
	}, []string{"method", "path", "status"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chainfeed_call_duration_seconds",
		Help:    "Gateway call duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Handler returns the /metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records per-route counters and durations.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		// the route pattern is populated once routing finished, so labels
		// stay low-cardinality
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		callsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		callDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
