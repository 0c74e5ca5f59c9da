package locations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPResolver resolves slugs against a location service over HTTP.
type HTTPResolver struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPResolver creates a new HTTPResolver.
func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type locationResponse struct {
	LocationID string `json:"locationId"`
}

// Resolve looks the slug up with GET {baseURL}/locations/{slug}.
func (r *HTTPResolver) Resolve(ctx context.Context, slug string) (string, error) {
	u, err := url.Parse(r.baseURL + "/locations/" + url.PathEscape(slug))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Explicitly ignore close error
	}()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("location service returned status %d: %s", resp.StatusCode, string(body))
	}

	var loc locationResponse
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if loc.LocationID == "" {
		return "", ErrNotFound
	}
	return loc.LocationID, nil
}
