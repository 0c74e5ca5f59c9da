package locations_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex-user-go/staysearch/internal/locations"
)

func newLocationService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /locations/{slug}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("slug") {
		case "zlatibor-serbia":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"locationId": "loc_zlatibor"})
		case "empty":
			_ = json.NewEncoder(w).Encode(map[string]string{})
		case "broken":
			http.Error(w, "boom", http.StatusBadGateway)
		case "garbage":
			_, _ = w.Write([]byte("not json"))
		case "slow":
			time.Sleep(200 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPResolver_Resolve(t *testing.T) {
	srv := newLocationService(t)
	r := locations.NewHTTPResolver(srv.URL+"/", time.Second)

	id, err := r.Resolve(context.Background(), "zlatibor-serbia")
	require.NoError(t, err)
	assert.Equal(t, "loc_zlatibor", id)
}

func TestHTTPResolver_Errors(t *testing.T) {
	srv := newLocationService(t)
	r := locations.NewHTTPResolver(srv.URL, 50*time.Millisecond)

	tests := []struct {
		slug         string
		wantNotFound bool
	}{
		{slug: "unknown-place", wantNotFound: true},
		{slug: "empty", wantNotFound: true},
		{slug: "broken"},
		{slug: "garbage"},
		{slug: "slow"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.slug)
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, err == locations.ErrNotFound, "err = %v", err)
		})
	}
}
