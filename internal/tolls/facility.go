package tolls

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingMode selects how a facility prices a traversal.
type PricingMode string

const (
	// PricingFixed charges the base rate regardless of time or traffic.
	PricingFixed PricingMode = "FIXED"
	// PricingDynamic varies the rate by time-of-day window and congestion.
	PricingDynamic PricingMode = "DYNAMIC"
)

// Window is a daily time window expressed in minutes since local
// midnight, end inclusive. A window with Start > End wraps past midnight
// (e.g. the 21:00-06:00 off-peak window).
type Window struct {
	Start int
	End   int
}

// Contains reports whether the clock minute m falls inside the window.
func (w Window) Contains(m int) bool {
	if w.Start <= w.End {
		return m >= w.Start && m <= w.End
	}
	return m >= w.Start || m <= w.End
}

// DynamicParams holds the pricing curve of a DYNAMIC facility. The
// effective multiplier is always clamped to [OffPeakMultiplier,
// PeakMultiplier]; the congestion surcharge is capped by the peak
// ceiling, never additive beyond it.
type DynamicParams struct {
	PeakMultiplier      float64
	MiddayMultiplier    float64
	OffPeakMultiplier   float64
	CongestionThreshold float64
	CongestionFactor    float64

	MorningPeak Window
	EveningPeak Window
	Midday      Window
	OffPeak     Window
}

// Facility is one named tolled highway or express-lane segment with its
// own pricing policy. Facilities are created once at process start and
// never mutated at runtime.
type Facility struct {
	ID          string
	Description string
	Region      string
	Mode        PricingMode
	RatePerMile decimal.Decimal

	// Dynamic is required when Mode is PricingDynamic and ignored
	// otherwise.
	Dynamic *DynamicParams

	// Patterns are case-insensitive regular expressions matched against
	// road names reported by routing collaborators.
	Patterns []string
}

// Multiplier resolves the effective pricing multiplier for a dynamic
// facility at the given local clock time and congestion signal. Windows
// are evaluated in precedence order, first match wins; a clock time
// outside every declared window prices at the regular 1.0x rate.
func (p *DynamicParams) Multiplier(at time.Time, congestion float64) float64 {
	m := 1.0
	minute := at.Hour()*60 + at.Minute()

	switch {
	case p.MorningPeak.Contains(minute):
		m = p.PeakMultiplier
	case p.EveningPeak.Contains(minute):
		m = p.PeakMultiplier
	case p.Midday.Contains(minute):
		m = p.MiddayMultiplier
	case p.OffPeak.Contains(minute):
		m = p.OffPeakMultiplier
	}

	if congestion > 0 && congestion >= p.CongestionThreshold {
		m *= p.CongestionFactor
	}

	// Rate floor and ceiling.
	if m > p.PeakMultiplier {
		m = p.PeakMultiplier
	}
	if m < p.OffPeakMultiplier {
		m = p.OffPeakMultiplier
	}
	return m
}

// DefaultDynamicParams returns the canonical pricing curve used when a
// facility's configuration declares dynamic pricing without overriding
// the windows: morning peak 07:00-09:30, evening peak 16:30-19:00,
// midday 11:00-14:00 at 1.3x, off-peak 21:00-06:00 at 0.6x.
func DefaultDynamicParams(peak float64) *DynamicParams {
	return &DynamicParams{
		PeakMultiplier:      peak,
		MiddayMultiplier:    1.3,
		OffPeakMultiplier:   0.6,
		CongestionThreshold: 1.30,
		CongestionFactor:    1.40,
		MorningPeak:         Window{Start: 7 * 60, End: 9*60 + 30},
		EveningPeak:         Window{Start: 16*60 + 30, End: 19 * 60},
		Midday:              Window{Start: 11 * 60, End: 14 * 60},
		OffPeak:             Window{Start: 21 * 60, End: 6 * 60},
	}
}
