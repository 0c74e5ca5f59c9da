// Package pricing resolves nightly prices, discounts and tourist tax for a stay.
package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/alex-user-go/staysearch/internal/search/types"
)

var (
	// ErrMatrixNotFound is returned by a Store when a listing has no pricing matrix.
	ErrMatrixNotFound = errors.New("pricing matrix not found")
	// ErrNoDefaultPrice means a matrix lacks its mandatory default base price.
	ErrNoDefaultPrice = errors.New("pricing matrix has no default base price")
	// ErrDuplicateDefault means a matrix declares more than one default base price.
	ErrDuplicateDefault = errors.New("pricing matrix has more than one default base price")
	// ErrCorruptMatrix wraps any other structural defect found in a matrix.
	ErrCorruptMatrix = errors.New("corrupt pricing matrix")
)

// DiscountType is how a discount value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (d DiscountType) valid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

// DateRange is an inclusive range of calendar dates in YYYY-MM-DD form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether day falls within the range. The bounds are
// compared as text, so the range must have passed validate.
func (r DateRange) Contains(day time.Time) bool {
	d := day.Format(types.DateLayout)
	return r.Start <= d && d <= r.End
}

func (r DateRange) validate() error {
	start, err := time.Parse(types.DateLayout, r.Start)
	if err != nil {
		return fmt.Errorf("%w: date range start %q", ErrCorruptMatrix, r.Start)
	}
	end, err := time.Parse(types.DateLayout, r.End)
	if err != nil {
		return fmt.Errorf("%w: date range end %q", ErrCorruptMatrix, r.End)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: date range %s..%s ends before it starts", ErrCorruptMatrix, r.Start, r.End)
	}
	return nil
}

// MembersDiscount is a members-only price with its effective value precomputed.
type MembersDiscount struct {
	Type            DiscountType `json:"type"`
	Value           float64      `json:"value"`
	CalculatedPrice float64      `json:"calculatedPrice"`
}

// LengthOfStayDiscount unlocks once a stay reaches MinNights.
type LengthOfStayDiscount struct {
	MinNights     int          `json:"minNights"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
}

// BasePrice is either the default nightly price or a seasonal override.
type BasePrice struct {
	IsDefault             bool                   `json:"isDefault"`
	DateRange             *DateRange             `json:"dateRange,omitempty"`
	StandardPrice         float64                `json:"standardPrice"`
	MembersDiscount       *MembersDiscount       `json:"membersDiscount,omitempty"`
	LengthOfStayDiscounts []LengthOfStayDiscount `json:"lengthOfStayDiscounts,omitempty"`
}

// Label is a bilingual display label.
type Label struct {
	En string `json:"en"`
	Sr string `json:"sr"`
}

// ChildRate is the per-night tourist tax for children in an inclusive age band.
type ChildRate struct {
	AgeFrom int     `json:"ageFrom"`
	AgeTo   int     `json:"ageTo"`
	Amount  float64 `json:"amount"`
	Label   Label   `json:"label"`
}

// TouristTaxConfig is a listing's tourist tax schedule.
type TouristTaxConfig struct {
	AdultAmount float64     `json:"adultAmount"`
	ChildRates  []ChildRate `json:"childRates,omitempty"`
}

// Matrix is the full pricing configuration of one listing.
type Matrix struct {
	BasePrices           []BasePrice       `json:"basePrices"`
	Currency             string            `json:"currency"`
	TouristTax           *TouristTaxConfig `json:"touristTax,omitempty"`
	TaxesIncludedInPrice bool              `json:"taxesIncludedInPrice"`
}

// validate rejects base prices that would otherwise be priced silently wrong.
func (m *Matrix) validate() error {
	for i, bp := range m.BasePrices {
		if bp.StandardPrice < 0 {
			return fmt.Errorf("%w: base price %d has negative standard price %v", ErrCorruptMatrix, i, bp.StandardPrice)
		}
		if !bp.IsDefault && bp.DateRange == nil {
			return fmt.Errorf("%w: seasonal base price %d has no date range", ErrCorruptMatrix, i)
		}
		if bp.DateRange != nil {
			if err := bp.DateRange.validate(); err != nil {
				return fmt.Errorf("base price %d: %w", i, err)
			}
		}
		if md := bp.MembersDiscount; md != nil {
			if md.CalculatedPrice <= 0 || md.CalculatedPrice > bp.StandardPrice {
				return fmt.Errorf("%w: base price %d members price %v outside (0, %v]",
					ErrCorruptMatrix, i, md.CalculatedPrice, bp.StandardPrice)
			}
		}
	}
	return nil
}

func (m *Matrix) defaultPrice() (*BasePrice, error) {
	var def *BasePrice
	for i := range m.BasePrices {
		if !m.BasePrices[i].IsDefault {
			continue
		}
		if def != nil {
			return nil, ErrDuplicateDefault
		}
		def = &m.BasePrices[i]
	}
	if def == nil {
		return nil, ErrNoDefaultPrice
	}
	return def, nil
}

// priceFor returns the base price governing day: the first seasonal entry
// whose range contains it, else def.
func (m *Matrix) priceFor(day time.Time, def *BasePrice) (*BasePrice, bool) {
	for i := range m.BasePrices {
		bp := &m.BasePrices[i]
		if bp.IsDefault || bp.DateRange == nil {
			continue
		}
		if bp.DateRange.Contains(day) {
			return bp, true
		}
	}
	return def, false
}

// stayDiscount picks, across every base price, the discount with the highest
// MinNights not exceeding nights. Ties keep the first declared.
func (m *Matrix) stayDiscount(nights int) *LengthOfStayDiscount {
	var best *LengthOfStayDiscount
	for i := range m.BasePrices {
		for j := range m.BasePrices[i].LengthOfStayDiscounts {
			d := &m.BasePrices[i].LengthOfStayDiscounts[j]
			if !d.DiscountType.valid() || d.MinNights > nights {
				continue
			}
			if best == nil || d.MinNights > best.MinNights {
				best = d
			}
		}
	}
	return best
}
