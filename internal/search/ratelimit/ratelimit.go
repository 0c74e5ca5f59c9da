package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// Window is the length of a fixed counting window.
	Window = time.Minute
	// DefaultLimit is the number of requests allowed per window.
	DefaultLimit = 60
	// expiryGrace keeps a counter alive slightly past its window.
	expiryGrace = 10 * time.Second
)

// Store persists per-window counters.
type Store interface {
	// Count returns the current value of key, 0 if absent.
	Count(ctx context.Context, key string) (int64, error)
	// Increment atomically adds one to key, creating it if absent, and
	// sets its expiry to ttl from now.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// ErrorRecorder counts failures of the counter store.
type ErrorRecorder interface {
	IncRateLimitStoreErrors()
}

// Limiter implements fixed one-minute windows per endpoint and client IP.
type Limiter struct {
	store  Store
	limit  int64
	now    func() time.Time
	errors ErrorRecorder
	logger *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a new Limiter allowing limit requests per window.
func New(store Store, limit int, errors ErrorRecorder, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  int64(limit),
		now:    time.Now,
		errors: errors,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WindowStart returns the start of the window containing t.
func WindowStart(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli() / Window.Milliseconds() * Window.Milliseconds())
}

// Key builds the counter key for an endpoint, client IP and window.
func Key(endpoint, ip string, windowStart time.Time) string {
	ip = strings.ToLower(strings.TrimSpace(ip))
	return fmt.Sprintf("ratelimit:%s:%s:%d", endpoint, ip, windowStart.UnixMilli())
}

// Allow reports whether a request from ip to endpoint may proceed.
// Store failures allow the request.
func (l *Limiter) Allow(ctx context.Context, endpoint, ip string) bool {
	now := l.now()
	start := WindowStart(now)
	key := Key(endpoint, ip, start)

	count, err := l.store.Count(ctx, key)
	if err != nil {
		l.storeFailed(endpoint, ip, err)
		return true
	}
	if count >= l.limit {
		return false
	}

	ttl := start.Add(Window + expiryGrace).Sub(now)
	if _, err := l.store.Increment(ctx, key, ttl); err != nil {
		l.storeFailed(endpoint, ip, err)
	}
	return true
}

// RetryAfter returns the time left until the window containing now ends.
func (l *Limiter) RetryAfter() time.Duration {
	now := l.now()
	return WindowStart(now).Add(Window).Sub(now)
}

func (l *Limiter) storeFailed(endpoint, ip string, err error) {
	l.errors.IncRateLimitStoreErrors()
	l.logger.Error("rate limit store failed, allowing request",
		"endpoint", endpoint,
		"ip", ip,
		"error", err,
	)
}
