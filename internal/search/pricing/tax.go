package pricing

// AdultTax is the adult part of a tourist tax breakdown.
type AdultTax struct {
	Count          int     `json:"count"`
	AmountPerNight float64 `json:"amountPerNight"`
	Total          float64 `json:"total"`
}

// ChildTax is the tax for the children falling into one age band.
type ChildTax struct {
	AgeFrom        int     `json:"ageFrom"`
	AgeTo          int     `json:"ageTo"`
	Label          Label   `json:"label"`
	Count          int     `json:"count"`
	AmountPerNight float64 `json:"amountPerNight"`
	Total          float64 `json:"total"`
}

// TaxBreakdown is the tourist tax owed for a stay.
type TaxBreakdown struct {
	Adults   AdultTax   `json:"adults"`
	Children []ChildTax `json:"children"`
	TotalTax float64    `json:"totalTax"`

	exact float64
}

// TouristTax computes the tourist tax for the given guests and nights.
// A nil config yields an all-zero breakdown. A child whose age matches no
// band is not taxed; overlapping bands resolve to the first declared.
func TouristTax(cfg *TouristTaxConfig, adults int, childAges []int, nights int) TaxBreakdown {
	out := TaxBreakdown{
		Adults:   AdultTax{Count: adults},
		Children: []ChildTax{},
	}
	if cfg == nil {
		return out
	}

	adultExact := float64(adults) * cfg.AdultAmount * float64(nights)
	out.Adults.AmountPerNight = cfg.AdultAmount
	out.Adults.Total = Round2(adultExact)

	counts := make([]int, len(cfg.ChildRates))
	for _, age := range childAges {
		for i, band := range cfg.ChildRates {
			if band.AgeFrom <= age && age <= band.AgeTo {
				counts[i]++
				break
			}
		}
	}

	total := adultExact
	for i, band := range cfg.ChildRates {
		if counts[i] == 0 {
			continue
		}
		groupExact := float64(counts[i]) * band.Amount * float64(nights)
		total += groupExact
		out.Children = append(out.Children, ChildTax{
			AgeFrom:        band.AgeFrom,
			AgeTo:          band.AgeTo,
			Label:          band.Label,
			Count:          counts[i],
			AmountPerNight: band.Amount,
			Total:          Round2(groupExact),
		})
	}

	out.exact = total
	out.TotalTax = Round2(total)
	return out
}
