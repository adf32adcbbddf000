package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinates_Valid(t *testing.T) {
	assert.True(t, Coordinates{Lat: 30.2672, Lng: -97.7431}.Valid())
	assert.True(t, Coordinates{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Coordinates{Lat: 90.1, Lng: 0}.Valid())
	assert.False(t, Coordinates{Lat: 0, Lng: -180.5}.Valid())
}

func TestRouteCandidate_SegmentData(t *testing.T) {
	none := RouteCandidate{Segments: nil}
	assert.False(t, none.HasSegmentData())
	assert.False(t, none.Tolled())

	empty := RouteCandidate{Segments: []RouteSegment{}}
	assert.True(t, empty.HasSegmentData())
	assert.False(t, empty.Tolled())

	tolled := RouteCandidate{Segments: []RouteSegment{{FacilityID: "x", Miles: 2}}}
	assert.True(t, tolled.HasSegmentData())
	assert.True(t, tolled.Tolled())
}

func TestRouteCandidate_DistanceMiles(t *testing.T) {
	r := RouteCandidate{DistanceMeters: 16093}
	assert.InDelta(t, 10.0, r.DistanceMiles(), 0.01)
}
