package optimizer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tollwise/tollrouted/internal/types"
)

// ErrNoRoutesAvailable is returned when the routing collaborator supplied
// zero candidates; there is nothing to recommend.
var ErrNoRoutesAvailable = errors.New("no routes available")

// Decision is one candidate's budget verdict and rank.
type Decision struct {
	Route     types.RouteCandidate
	Toll      decimal.Decimal
	Status    types.BudgetStatus
	ExceedsBy decimal.Decimal
	Rank      int
	Reason    string
}

// Result is the outcome of one optimization request. It is computed fresh
// per request and never persisted.
type Result struct {
	BudgetUSD          decimal.Decimal
	RecommendedRouteID string
	Ranked             []Decision
	Advisories         []string
}

// Optimizer ranks estimated routes against a toll budget.
type Optimizer struct {
	logger *logrus.Logger
}

// New creates an Optimizer.
func New(logger *logrus.Logger) *Optimizer {
	return &Optimizer{logger: logger}
}

// Optimize tags each candidate against the budget, ranks the
// within-budget set by ascending ETA (ties by toll, distance, route id),
// and recommends its top entry. When nothing fits, the over-budget route
// closest to the budget is recommended instead and an advisory is
// attached. Negative budgets are normalized to zero with an advisory
// rather than rejected, since an over-budget recommendation can still be
// returned.
//
// Optimize reads the toll figures and never mutates them; re-running on
// the same inputs yields the same recommendation and order.
func (o *Optimizer) Optimize(estimates []types.EstimatedRoute, budget decimal.Decimal) (*Result, error) {
	if len(estimates) == 0 {
		return nil, ErrNoRoutesAvailable
	}

	res := &Result{Advisories: []string{}}
	if budget.IsNegative() {
		res.Advisories = append(res.Advisories,
			fmt.Sprintf("Negative toll budget $%s normalized to $0.00.", budget.StringFixed(2)))
		budget = decimal.Zero
	}
	res.BudgetUSD = budget

	var within, over []Decision
	for _, est := range estimates {
		d := Decision{Route: est.Candidate, Toll: est.Toll, ExceedsBy: decimal.Zero}
		if est.Toll.LessThanOrEqual(budget) {
			d.Status = types.BudgetStatusWithin
			within = append(within, d)
		} else {
			d.Status = types.BudgetStatusOver
			d.ExceedsBy = est.Toll.Sub(budget).Round(2)
			over = append(over, d)
		}
	}

	// Fastest first inside the budget; deterministic tie-breaks.
	sort.SliceStable(within, func(i, j int) bool {
		a, b := within[i], within[j]
		if a.Route.ETASeconds != b.Route.ETASeconds {
			return a.Route.ETASeconds < b.Route.ETASeconds
		}
		if !a.Toll.Equal(b.Toll) {
			return a.Toll.LessThan(b.Toll)
		}
		if a.Route.DistanceMeters != b.Route.DistanceMeters {
			return a.Route.DistanceMeters < b.Route.DistanceMeters
		}
		return a.Route.RouteID < b.Route.RouteID
	})

	// Over-budget routes trail the ranking, closest to budget first.
	sort.SliceStable(over, func(i, j int) bool {
		a, b := over[i], over[j]
		if !a.ExceedsBy.Equal(b.ExceedsBy) {
			return a.ExceedsBy.LessThan(b.ExceedsBy)
		}
		if a.Route.ETASeconds != b.Route.ETASeconds {
			return a.Route.ETASeconds < b.Route.ETASeconds
		}
		return a.Route.RouteID < b.Route.RouteID
	})

	res.Ranked = append(within, over...)
	for i := range res.Ranked {
		res.Ranked[i].Rank = i + 1
	}

	if len(within) > 0 {
		res.RecommendedRouteID = within[0].Route.RouteID
	} else {
		res.RecommendedRouteID = over[0].Route.RouteID
		res.Advisories = append(res.Advisories, fmt.Sprintf(
			"No route fits your $%s budget; recommending the closest option, $%s over.",
			budget.StringFixed(2), over[0].ExceedsBy.StringFixed(2)))
	}

	annotate(res.Ranked, res.RecommendedRouteID, budget)

	o.logger.WithFields(logrus.Fields{
		"candidates":    len(estimates),
		"within_budget": len(within),
		"recommended":   res.RecommendedRouteID,
		"budget_usd":    budget.StringFixed(2),
	}).Info("Routes ranked")

	return res, nil
}
