package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

var defaultLocations = map[string]string{
	"zlatibor-serbia":  "loc_zlatibor",
	"kopaonik-serbia":  "loc_kopaonik",
	"belgrade-serbia":  "loc_belgrade",
	"novi-sad-serbia":  "loc_novi_sad",
	"tara-serbia":      "loc_tara",
	"divcibare-serbia": "loc_divcibare",
}

type directory struct {
	slugs  map[string]string
	logger *slog.Logger
}

func newDirectory(slugs map[string]string, logger *slog.Logger) *directory {
	return &directory{slugs: slugs, logger: logger}
}

func (d *directory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slug := strings.ToLower(chi.URLParam(r, "slug"))
	id, ok := d.slugs[slug]
	if !ok {
		d.logger.Debug("unknown slug", "slug", slug)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "location not found"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"locationId": id}); err != nil {
		d.logger.Error("failed to encode response", "error", err)
	}
}
