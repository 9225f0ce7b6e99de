// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequests counts requests by chi route pattern, method and status.
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runplan_http_requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "runplan_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"route"})

	// evaluations counts engine calls.
	// Labels: kind ("exponential", "linear", "unknown"), operation
	// ("mileage", "week", "rate", "curve"), outcome ("ok", "no_solution",
	// "unbounded", "invalid_parameter", "invalid_input", "unknown_model_kind").
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "runplan_evaluations_total",
		Help: "Model evaluations by kind, operation and outcome",
	}, []string{"kind", "operation", "outcome"})
)

// ObserveEvaluation records one engine call.
func ObserveEvaluation(kind, operation, outcome string) {
	if kind == "" {
		kind = "unknown"
	}
	evaluations.WithLabelValues(kind, operation, outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency keyed by the matched chi route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (MCP) working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
