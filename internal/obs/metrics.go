package obs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks application metrics using atomic counters.
type Metrics struct {
	requests             atomic.Int64
	rateLimited          atomic.Int64
	candidateFailures    atomic.Int64
	rateLimitStoreErrors atomic.Int64
	logger               *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requests.Add(1)
}

// IncRateLimited increments the rejected-by-rate-limit counter.
func (m *Metrics) IncRateLimited() {
	m.rateLimited.Add(1)
}

// IncCandidateFailures increments the counter of listings dropped because a
// per-listing lookup or computation failed.
func (m *Metrics) IncCandidateFailures() {
	m.candidateFailures.Add(1)
}

// IncRateLimitStoreErrors increments the rate-limit store error counter.
func (m *Metrics) IncRateLimitStoreErrors() {
	m.rateLimitStoreErrors.Add(1)
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:             m.requests.Load(),
		RateLimited:          m.rateLimited.Load(),
		CandidateFailures:    m.candidateFailures.Load(),
		RateLimitStoreErrors: m.rateLimitStoreErrors.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Requests             int64
	RateLimited          int64
	CandidateFailures    int64
	RateLimitStoreErrors int64
}

// Check is a named dependency probe run by HealthHandler.
type Check struct {
	Name  string
	Probe func(context.Context) error
}

// HealthHandler returns a handler for /healthz requests. It answers 503
// naming the first failing check, or 200 when every probe succeeds.
func HealthHandler(logger *slog.Logger, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, body := http.StatusOK, "OK"
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				logger.Warn("health check failed", "check", c.Name, "error", err)
				status, body = http.StatusServiceUnavailable, "unavailable: "+c.Name
				break
			}
		}

		w.WriteHeader(status)
		if _, err := w.Write([]byte(body)); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}

type counter struct {
	name  string
	help  string
	value int64
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := m.Snapshot()
		counters := []counter{
			{"requests_total", "Total number of search requests", snapshot.Requests},
			{"rate_limited_total", "Total number of requests rejected by the rate limiter", snapshot.RateLimited},
			{"candidate_failures_total", "Total number of listings dropped after a failed lookup", snapshot.CandidateFailures},
			{"rate_limit_store_errors_total", "Total number of rate limit store errors", snapshot.RateLimitStoreErrors},
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)

		for _, c := range counters {
			if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.value); err != nil {
				m.logger.Error("failed to write metrics", "error", err)
				return
			}
		}
	}
}
