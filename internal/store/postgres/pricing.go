package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alex-user-go/staysearch/internal/search/pricing"
)

// PricingMatrices reads per-listing pricing matrices stored as JSONB.
type PricingMatrices struct {
	db *sql.DB
}

// NewPricingMatrices creates a PricingMatrices store.
func NewPricingMatrices(db *sql.DB) *PricingMatrices {
	return &PricingMatrices{db: db}
}

const matrixQuery = `SELECT matrix FROM pricing_matrices WHERE listing_id = $1`

// GetPricingMatrix returns pricing.ErrMatrixNotFound when the listing has no row.
func (p *PricingMatrices) GetPricingMatrix(ctx context.Context, listingID string) (*pricing.Matrix, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, matrixQuery, listingID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pricing.ErrMatrixNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query pricing matrix for %s: %w", listingID, err)
	}
	return decodeMatrix(raw)
}

func decodeMatrix(raw []byte) (*pricing.Matrix, error) {
	if len(raw) == 0 {
		return nil, pricing.ErrMatrixNotFound
	}
	var m pricing.Matrix
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode pricing matrix: %w", err)
	}
	return &m, nil
}
