package types

// OptimizeRequest is the wire form of an optimization request.
type OptimizeRequest struct {
	Origin      Coordinates       `json:"origin"`
	Destination Coordinates       `json:"destination"`
	Preferences *RoutePreferences `json:"preferences,omitempty"`

	// DepartAt is an RFC3339 timestamp used for time-of-day pricing.
	// Empty means "now"; the request layer resolves it before the core is
	// invoked so the pricing engine never reads a live clock.
	DepartAt string `json:"depart_at,omitempty"`

	// Provider optionally names which routing collaborator to query.
	Provider string `json:"provider,omitempty"`
}

// RoutePreferences carries the caller's routing constraints.
type RoutePreferences struct {
	TollBudgetUSD *float64 `json:"toll_budget_usd,omitempty"`
	AvoidTolls    bool     `json:"avoid_tolls,omitempty"`
	AvoidHighways bool     `json:"avoid_highways,omitempty"`
}
