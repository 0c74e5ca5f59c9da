package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/alex-user-go/staysearch/internal/auth"
	"github.com/alex-user-go/staysearch/internal/middleware"
	"github.com/alex-user-go/staysearch/internal/obs"
	"github.com/alex-user-go/staysearch/internal/search"
	"github.com/alex-user-go/staysearch/internal/search/cursor"
	"github.com/alex-user-go/staysearch/internal/search/ratelimit"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

// Error codes returned in the body of failed requests.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
	CodeInternal    = "INTERNAL_ERROR"
)

const searchEndpoint = "search"

// Handler handles HTTP requests.
type Handler struct {
	searcher    *search.Searcher
	rateLimiter *ratelimit.Limiter
	metrics     *obs.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the handler's notion of today.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates a new Handler.
func New(
	searcher *search.Searcher,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		searcher:    searcher,
		rateLimiter: rateLimiter,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SearchResponse represents the complete API response.
type SearchResponse struct {
	Listings   []search.Listing `json:"listings"`
	Pagination Pagination       `json:"pagination"`
	SearchMeta SearchMeta       `json:"searchMeta"`
}

// Pagination describes how to fetch the next page.
type Pagination struct {
	HasMore       bool    `json:"hasMore"`
	NextCursor    *string `json:"nextCursor"`
	TotalReturned int     `json:"totalReturned"`
}

// SearchMeta echoes the interpreted request.
type SearchMeta struct {
	Location       string        `json:"location,omitempty"`
	LocationID     string        `json:"locationId"`
	CheckIn        string        `json:"checkIn"`
	CheckOut       string        `json:"checkOut"`
	Nights         int           `json:"nights"`
	Adults         int           `json:"adults"`
	ChildAges      []int         `json:"childAges"`
	MembersPricing bool          `json:"membersPricing"`
	Counts         search.Counts `json:"counts"`
	DurationMs     int64         `json:"durationMs"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// SearchHandler handles /search requests.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	h.metrics.IncRequests()
	requestID := middleware.RequestID(r.Context())

	// Check rate limit
	ip := ExtractIP(r)
	if !h.rateLimiter.Allow(r.Context(), searchEndpoint, ip) {
		h.metrics.IncRateLimited()
		h.logger.Warn("rate limit exceeded", "request_id", requestID, "ip", ip)
		retryAfter := int(math.Ceil(h.rateLimiter.RetryAfter().Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
		writeError(w, http.StatusTooManyRequests, ErrorResponse{
			Error: "too many requests, please retry later",
			Code:  CodeRateLimited,
		})
		return
	}

	// Parse and validate query parameters
	req, err := ParseSearchParams(r, h.now().UTC())
	if err != nil {
		h.logger.Debug("invalid request parameters", "request_id", requestID, "error", err, "ip", ip)
		h.writeSearchError(w, requestID, err)
		return
	}
	req.Authenticated = auth.IsAuthenticated(r.Context())

	result, err := h.searcher.Search(r.Context(), *req)
	if err != nil {
		h.writeSearchError(w, requestID, err)
		return
	}

	response := assemble(req, result, time.Since(startTime))

	// Write response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Can't change status after WriteHeader, just log
		h.logger.Error("failed to encode response", "request_id", requestID, "error", err)
	}
}

func assemble(req *types.Request, result *search.Result, elapsed time.Duration) SearchResponse {
	listings := result.Listings
	if listings == nil {
		listings = []search.Listing{}
	}
	childAges := req.ChildAges
	if childAges == nil {
		childAges = []int{}
	}

	var next *string
	if c := cursor.Encode(result.Next); c != "" {
		next = &c
	}

	return SearchResponse{
		Listings: listings,
		Pagination: Pagination{
			HasMore:       next != nil,
			NextCursor:    next,
			TotalReturned: len(listings),
		},
		SearchMeta: SearchMeta{
			Location:       req.LocationSlug,
			LocationID:     result.LocationID,
			CheckIn:        req.CheckIn.Format(types.DateLayout),
			CheckOut:       req.CheckOut.Format(types.DateLayout),
			Nights:         req.Nights,
			Adults:         req.Adults,
			ChildAges:      childAges,
			MembersPricing: req.Authenticated,
			Counts:         result.Counts,
			DurationMs:     elapsed.Milliseconds(),
		},
	}
}

// writeSearchError maps a validation or search error to a response.
// Internal details are logged, never returned.
func (h *Handler) writeSearchError(w http.ResponseWriter, requestID string, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Code: CodeValidation, Field: verr.Field})
	case errors.Is(err, cursor.ErrInvalid):
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "cursor: malformed cursor", Code: CodeValidation, Field: "cursor"})
	case errors.Is(err, search.ErrLocationNotFound):
		writeError(w, http.StatusNotFound, ErrorResponse{Error: "location not found", Code: CodeNotFound})
	default:
		h.logger.Error("search failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternal})
	}
}

// ExtractIP returns the client address used as the rate-limit key: the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr. Header values that
// do not parse as an IP are skipped, and IPv4-mapped IPv6 is unmapped.
func ExtractIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.Unmap().String()
		}
	}

	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
