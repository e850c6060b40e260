package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels recorded against the registration counters.
const (
	OutcomeAccepted         = "accepted"
	OutcomeValidationFailed = "validation_failed"
	OutcomeFailed           = "failed"

	OutcomeForkExists  = "exists"
	OutcomeForkCreated = "created"
	OutcomeForkTimeout = "timeout"

	OutcomeDispatched = "dispatched"
)

// Collector gathers Prometheus metrics for the registration pipeline and the
// HTTP surface.
type Collector struct {
	uploads      *prometheus.CounterVec
	forkEnsures  *prometheus.CounterVec
	dispatches   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics on the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faasrhub_uploads_total",
			Help: "Workflow file uploads by outcome",
		}, []string{"outcome"}),
		forkEnsures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faasrhub_fork_ensures_total",
			Help: "Fork ensure operations by outcome",
		}, []string{"outcome"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faasrhub_workflow_dispatches_total",
			Help: "Registration workflow dispatches by outcome",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faasrhub_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "faasrhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.uploads,
		c.forkEnsures,
		c.dispatches,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// RecordUpload records one upload attempt.
func (c *Collector) RecordUpload(outcome string) {
	c.uploads.WithLabelValues(outcome).Inc()
}

// RecordForkEnsure records one fork ensure operation.
func (c *Collector) RecordForkEnsure(outcome string) {
	c.forkEnsures.WithLabelValues(outcome).Inc()
}

// RecordWorkflowDispatch records one registration workflow dispatch.
func (c *Collector) RecordWorkflowDispatch(outcome string) {
	c.dispatches.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// HTTPMiddleware measures every request served by the router. The route
// template is used as the label so path parameters do not blow up metric
// cardinality.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		c.RecordHTTPRequest(r.Method, route, recorder.statusCode, time.Since(start))
	})
}

// statusRecorder captures the status code written by downstream handlers
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
