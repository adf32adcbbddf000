package types

// BudgetStatus tags a ranked route against the caller's toll budget.
type BudgetStatus string

const (
	BudgetStatusWithin BudgetStatus = "WITHIN_BUDGET"
	BudgetStatusOver   BudgetStatus = "OVER_BUDGET"
)

// RankedRoute is one entry of the ranked response.
type RankedRoute struct {
	RouteID         string       `json:"route_id"`
	ETASeconds      int          `json:"eta_seconds"`
	DistanceMeters  int          `json:"distance_meters"`
	TollEstimateUSD float64      `json:"toll_estimate_usd"`
	BudgetStatus    BudgetStatus `json:"budget_status"`
	ExceedsByUSD    float64      `json:"exceeds_by_usd"`
	Rank            int          `json:"rank"`
	Reason          string       `json:"reason"`
	Polyline        string       `json:"polyline,omitempty"`
}

// OptimizeResponse is the wire form of an optimization result.
type OptimizeResponse struct {
	BudgetUSD          float64       `json:"budget_usd"`
	RecommendedRouteID string        `json:"recommended_route_id"`
	RoutesRanked       []RankedRoute `json:"routes_ranked"`
	Advisories         []string      `json:"advisories"`
}

// ErrorResponse is the wire form of request failures.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// FacilityInfo is the read-only registry listing served by the API.
type FacilityInfo struct {
	ID              string  `json:"id"`
	Description     string  `json:"description"`
	Region          string  `json:"region"`
	PricingMode     string  `json:"pricing_mode"`
	BaseRatePerMile float64 `json:"base_rate_per_mile"`
	PeakMultiplier  float64 `json:"peak_multiplier,omitempty"`
}
