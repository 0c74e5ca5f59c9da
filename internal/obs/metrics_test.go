package obs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alex-user-go/staysearch/internal/obs"
)

func TestMetricsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := obs.NewMetrics(logger)
	m.IncRequests()
	m.IncRequests()
	m.IncRateLimited()
	m.IncCandidateFailures()
	m.IncRateLimitStoreErrors()

	w := httptest.NewRecorder()
	m.MetricsHandler()(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "# TYPE requests_total counter\nrequests_total 2\n")
	assert.Contains(t, body, "rate_limited_total 1\n")
	assert.Contains(t, body, "candidate_failures_total 1\n")
	assert.Contains(t, body, "rate_limit_store_errors_total 1\n")
}

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()
	obs.HealthHandler(logger)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestHealthHandler_FailingCheck(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checks := []obs.Check{
		{Name: "redis", Probe: func(context.Context) error { return nil }},
		{Name: "postgres", Probe: func(context.Context) error { return errors.New("connection refused") }},
	}

	w := httptest.NewRecorder()
	obs.HealthHandler(logger, checks...)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable: postgres", w.Body.String())
}
