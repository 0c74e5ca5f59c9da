package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alex-user-go/staysearch/internal/search/batch"
	"github.com/alex-user-go/staysearch/internal/search/types"
)

// Store looks up pricing matrices.
type Store interface {
	// GetPricingMatrix returns ErrMatrixNotFound when the listing has none.
	GetPricingMatrix(ctx context.Context, listingID string) (*Matrix, error)
}

// FailureRecorder counts per-candidate lookup failures.
type FailureRecorder interface {
	IncCandidateFailures()
}

// Stay describes what is being priced.
type Stay struct {
	CheckIn       time.Time
	Nights        int
	Adults        int
	ChildAges     []int
	Authenticated bool
}

// Night is the price of a single night.
type Night struct {
	Date            string  `json:"date"`
	BasePrice       float64 `json:"basePrice"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
	IsMembersPrice  bool    `json:"isMembersPrice"`
	IsSeasonalPrice bool    `json:"isSeasonalPrice"`
}

// AppliedStayDiscount is the length-of-stay discount used for a quote.
type AppliedStayDiscount struct {
	MinNights    int          `json:"minNights"`
	Type         DiscountType `json:"type"`
	Value        float64      `json:"value"`
	TotalSavings float64      `json:"totalSavings"`
}

// Discounts summarises the discounts in a quote.
type Discounts struct {
	LengthOfStay          *AppliedStayDiscount `json:"lengthOfStay"`
	MembersPricingApplied bool                 `json:"membersPricingApplied"`
	MembersSavings        float64              `json:"membersSavings"`
}

// Quote is the computed price of a stay at one listing.
type Quote struct {
	Currency             string        `json:"currency"`
	Nights               int           `json:"nights"`
	TotalPrice           float64       `json:"totalPrice"`
	PricePerNight        float64       `json:"pricePerNight"`
	NightlyBreakdown     []Night       `json:"nightlyBreakdown"`
	Discounts            Discounts     `json:"discounts"`
	TaxesIncludedInPrice bool          `json:"taxesIncludedInPrice"`
	TouristTax           *TaxBreakdown `json:"touristTax,omitempty"`
	TotalPriceWithTax    *float64      `json:"totalPriceWithTax,omitempty"`
}

// Compute prices stay against m. It is a pure function of its inputs.
func Compute(m *Matrix, stay Stay) (Quote, error) {
	if stay.Nights < 1 {
		return Quote{}, fmt.Errorf("nights must be positive, got %d", stay.Nights)
	}
	def, err := m.defaultPrice()
	if err != nil {
		return Quote{}, err
	}
	if err := m.validate(); err != nil {
		return Quote{}, err
	}
	stayDiscount := m.stayDiscount(stay.Nights)

	var (
		nights         = make([]Night, 0, stay.Nights)
		total          float64
		staySavings    float64
		membersSavings float64
		membersUsed    bool
	)

	for i := 0; i < stay.Nights; i++ {
		day := stay.CheckIn.AddDate(0, 0, i)
		bp, seasonal := m.priceFor(day, def)

		price := bp.StandardPrice
		members := false
		if stay.Authenticated && bp.MembersDiscount != nil {
			price = bp.MembersDiscount.CalculatedPrice
			members = true
			membersUsed = true
			membersSavings += bp.StandardPrice - price
		}

		discounted := applyStayDiscount(price, stayDiscount)
		staySavings += price - discounted
		total += discounted

		nights = append(nights, Night{
			Date:            day.Format(types.DateLayout),
			BasePrice:       Round2(bp.StandardPrice),
			Price:           Round2(price),
			DiscountedPrice: Round2(discounted),
			IsMembersPrice:  members,
			IsSeasonalPrice: seasonal,
		})
	}

	q := Quote{
		Currency:         normalizeCurrency(m.Currency),
		Nights:           stay.Nights,
		TotalPrice:       Round2(total),
		PricePerNight:    Round2(total / float64(stay.Nights)),
		NightlyBreakdown: nights,
		Discounts: Discounts{
			MembersPricingApplied: stay.Authenticated && membersUsed,
			MembersSavings:        Round2(membersSavings),
		},
		TaxesIncludedInPrice: m.TaxesIncludedInPrice,
	}
	if stayDiscount != nil {
		q.Discounts.LengthOfStay = &AppliedStayDiscount{
			MinNights:    stayDiscount.MinNights,
			Type:         stayDiscount.DiscountType,
			Value:        stayDiscount.DiscountValue,
			TotalSavings: Round2(staySavings),
		}
	}

	if !m.TaxesIncludedInPrice {
		tax := TouristTax(m.TouristTax, stay.Adults, stay.ChildAges, stay.Nights)
		withTax := Round2(total + tax.exact)
		q.TouristTax = &tax
		q.TotalPriceWithTax = &withTax
	}
	return q, nil
}

func applyStayDiscount(price float64, d *LengthOfStayDiscount) float64 {
	if d == nil {
		return price
	}
	switch d.DiscountType {
	case DiscountPercentage:
		return price * (1 - d.DiscountValue/100)
	case DiscountFixed:
		return max(price-d.DiscountValue, 0)
	}
	return price
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "EUR"
	}
	return c
}

// Priced pairs a candidate with its quote.
type Priced struct {
	Candidate types.Candidate
	Quote     Quote
}

// Resolver fetches pricing matrices in batches and prices each candidate.
type Resolver struct {
	store     Store
	batchSize int
	failures  FailureRecorder
	logger    *slog.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(store Store, batchSize int, failures FailureRecorder, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:     store,
		batchSize: batchSize,
		failures:  failures,
		logger:    logger,
	}
}

// PriceAll prices every candidate for stay, in candidate order. Candidates
// whose matrix is missing, unreadable or corrupt are left out. The only
// error returned is the context's.
func (r *Resolver) PriceAll(ctx context.Context, candidates []types.Candidate, stay Stay) ([]Priced, error) {
	outcomes, err := batch.Run(ctx, candidates, r.batchSize, func(ctx context.Context, c types.Candidate) (*Matrix, error) {
		m, err := r.store.GetPricingMatrix(ctx, c.ListingID)
		if err == nil && m == nil {
			err = ErrMatrixNotFound
		}
		return m, err
	})
	if err != nil {
		return nil, err
	}

	priced := make([]Priced, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			r.failures.IncCandidateFailures()
			level := slog.LevelWarn
			if errors.Is(o.Err, ErrMatrixNotFound) {
				level = slog.LevelDebug
			}
			r.logger.Log(ctx, level, "pricing lookup failed",
				"listing_id", o.Item.ListingID,
				"error", o.Err,
			)
			continue
		}

		q, err := Compute(o.Value, stay)
		if err != nil {
			r.failures.IncCandidateFailures()
			r.logger.Error("corrupt pricing matrix",
				"listing_id", o.Item.ListingID,
				"error", err,
			)
			continue
		}
		priced = append(priced, Priced{Candidate: o.Item, Quote: q})
	}
	return priced, nil
}
