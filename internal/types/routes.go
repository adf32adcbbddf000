package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is inside the WGS84 envelope.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// RouteSegment is a contiguous stretch of a route on one named toll
// facility. Untolled distance is not modeled as a segment.
type RouteSegment struct {
	FacilityID string  `json:"facility_id"`
	Miles      float64 `json:"miles"`
}

// RouteCandidate is one candidate route produced by a routing
// collaborator. Segments is nil when the collaborator could not supply a
// segment decomposition; toll estimation then degrades to treating the
// whole route as untolled.
type RouteCandidate struct {
	RouteID        string         `json:"route_id"`
	ETASeconds     int            `json:"eta_seconds"`
	DistanceMeters int            `json:"distance_meters"`
	Polyline       string         `json:"polyline,omitempty"`
	Segments       []RouteSegment `json:"segments,omitempty"`

	// Congestion is the ratio of actual over expected travel time for the
	// route, >= 1.0 when traffic is slower than free flow. Zero means no
	// signal is available and no surcharge applies.
	Congestion float64 `json:"congestion,omitempty"`
}

// DistanceMiles converts the candidate's total distance to statute miles.
func (r RouteCandidate) DistanceMiles() float64 {
	return float64(r.DistanceMeters) / MetersPerMile
}

// HasSegmentData reports whether the collaborator supplied a segment
// decomposition for this candidate.
func (r RouteCandidate) HasSegmentData() bool {
	return r.Segments != nil
}

// Tolled reports whether any segment of the route is on a toll facility.
func (r RouteCandidate) Tolled() bool {
	for _, s := range r.Segments {
		if s.Miles > 0 {
			return true
		}
	}
	return false
}

// MetersPerMile converts route distances reported in meters to the miles
// that toll rates are quoted in.
const MetersPerMile = 1609.34

// EstimatedRoute pairs a candidate with its computed toll estimate. The
// candidate is immutable once the estimate is attached; ranking never
// touches the toll figure.
type EstimatedRoute struct {
	Candidate RouteCandidate
	Toll      decimal.Decimal

	// Degraded marks an estimate produced without segment data.
	Degraded bool
}

// RouteQuery is the request handed to a routing collaborator.
type RouteQuery struct {
	Origin        Coordinates
	Destination   Coordinates
	AvoidTolls    bool
	AvoidHighways bool
	DepartAt      time.Time
}
