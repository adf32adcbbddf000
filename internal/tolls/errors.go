package tolls

import "errors"

var (
	// ErrUnknownFacility is returned when a segment names a facility that
	// is not registered in the rate table. A route referencing an unknown
	// facility is never silently estimated at zero.
	ErrUnknownFacility = errors.New("unknown toll facility")

	// ErrInvalidDistance is returned for negative segment distances.
	ErrInvalidDistance = errors.New("invalid segment distance")
)
