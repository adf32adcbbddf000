package providers

import "github.com/tollwise/tollrouted/internal/types"

// FreeFlowSpeedMPH is the assumed uncongested highway speed used to
// derive a congestion signal from a candidate's ETA.
const FreeFlowSpeedMPH = 65.0

// CongestionSignal computes the actual/expected travel-time ratio for a
// candidate. A ratio of 1.3 means the route is running 30% slower than
// free flow. Returns 0 (no signal) when the inputs cannot support an
// estimate or traffic is at or better than free flow.
func CongestionSignal(etaSeconds, distanceMeters int) float64 {
	if etaSeconds <= 0 || distanceMeters <= 0 {
		return 0
	}
	miles := float64(distanceMeters) / types.MetersPerMile
	expectedSeconds := miles / FreeFlowSpeedMPH * 3600
	if expectedSeconds <= 0 {
		return 0
	}
	signal := float64(etaSeconds) / expectedSeconds
	if signal < 1.0 {
		return 0
	}
	return signal
}
