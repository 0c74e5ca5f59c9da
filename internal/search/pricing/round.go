package pricing

import "math"

// Round2 rounds v half-up to two decimal places.
func Round2(v float64) float64 {
	if v < 0 {
		return -Round2(-v)
	}
	// The epsilon absorbs binary representation error such as 1.005 * 100 = 100.49999.
	return math.Floor(v*100+0.5+1e-9) / 100
}
