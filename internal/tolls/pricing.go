package tolls

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Price estimates the toll for traversing miles of the given facility at
// the given local time. congestion is the actual/expected travel-time
// ratio for the traversal; pass 0 when no signal is available.
//
// FIXED facilities charge base rate times distance; time and congestion
// are ignored. DYNAMIC facilities scale the base rate by the facility's
// time-of-day multiplier and congestion surcharge, clamped between the
// off-peak discount and the peak ceiling.
//
// Price is pure: the caller supplies the clock, so every time window can
// be exercised deterministically.
func Price(f Facility, miles float64, at time.Time, congestion float64) (decimal.Decimal, error) {
	if miles < 0 {
		return decimal.Zero, fmt.Errorf("%w: %f miles on %q", ErrInvalidDistance, miles, f.ID)
	}

	amount := f.RatePerMile.Mul(decimal.NewFromFloat(miles))
	if f.Mode == PricingDynamic && f.Dynamic != nil {
		m := f.Dynamic.Multiplier(at, congestion)
		amount = amount.Mul(decimal.NewFromFloat(m))
	}
	return amount, nil
}
