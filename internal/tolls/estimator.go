package tolls

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tollwise/tollrouted/internal/types"
)

// Estimator aggregates per-segment toll prices into a route estimate.
type Estimator struct {
	table  *RateTable
	logger *logrus.Logger
}

// NewEstimator creates an estimator over the given rate table.
func NewEstimator(table *RateTable, logger *logrus.Logger) *Estimator {
	return &Estimator{table: table, logger: logger}
}

// Table exposes the estimator's read-only rate table.
func (e *Estimator) Table() *RateTable {
	return e.table
}

// Estimate resolves each segment's facility, prices it at the given time,
// and sums. congestionBySegment maps segment index to its travel-time
// ratio; missing entries mean no signal for that segment. A route with
// zero toll segments estimates to 0.00. An unregistered facility aborts
// the estimate with ErrUnknownFacility.
//
// Candidates without any segment decomposition are priced in degraded
// mode: the whole route is treated as untolled and the returned estimate
// is marked Degraded so the request layer can attach an advisory.
func (e *Estimator) Estimate(route types.RouteCandidate, at time.Time, congestionBySegment map[int]float64) (types.EstimatedRoute, error) {
	est := types.EstimatedRoute{Candidate: route, Toll: decimal.Zero}

	if !route.HasSegmentData() {
		est.Degraded = true
		e.logger.WithField("route_id", route.RouteID).
			Debug("No segment decomposition; treating route as untolled")
		return est, nil
	}

	total := decimal.Zero
	for i, seg := range route.Segments {
		facility, err := e.table.Lookup(seg.FacilityID)
		if err != nil {
			return types.EstimatedRoute{}, fmt.Errorf("route %q segment %d: %w", route.RouteID, i, err)
		}

		amount, err := Price(facility, seg.Miles, at, congestionBySegment[i])
		if err != nil {
			return types.EstimatedRoute{}, fmt.Errorf("route %q segment %d: %w", route.RouteID, i, err)
		}
		total = total.Add(amount)
	}

	est.Toll = total.Round(2)
	return est, nil
}

// UniformCongestion spreads one route-level congestion signal across all
// segments of a route. A non-positive signal yields nil (no surcharge).
func UniformCongestion(route types.RouteCandidate, signal float64) map[int]float64 {
	if signal <= 0 || len(route.Segments) == 0 {
		return nil
	}
	m := make(map[int]float64, len(route.Segments))
	for i := range route.Segments {
		m[i] = signal
	}
	return m
}
