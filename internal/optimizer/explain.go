package optimizer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tollwise/tollrouted/internal/types"
)

// annotate fills each decision's Reason from already-computed figures.
func annotate(ranked []Decision, recommendedID string, budget decimal.Decimal) {
	for i := range ranked {
		ranked[i].Reason = Explain(ranked[i], ranked, recommendedID, budget)
	}
}

// Explain derives the justification text for one decision by comparing it
// against the recommended, cheapest and toll-free routes in the ranking.
// Template selection is deterministic and side-effect-free.
func Explain(d Decision, all []Decision, recommendedID string, budget decimal.Decimal) string {
	recommended, _ := find(all, recommendedID)

	if d.Route.RouteID == recommendedID {
		return explainRecommended(d, all, budget)
	}

	deltaMin := etaDeltaMinutes(d, recommended)
	if d.Toll.IsZero() {
		if deltaMin > 0 {
			return fmt.Sprintf("Toll-free alternative (+%d min vs recommended)", deltaMin)
		}
		return "Toll-free alternative"
	}

	if d.Status == types.BudgetStatusOver {
		return fmt.Sprintf("Exceeds budget by $%s", d.ExceedsBy.StringFixed(2))
	}

	if deltaMin > 0 {
		return fmt.Sprintf("Within budget (+%d min vs recommended)", deltaMin)
	}
	return "Within budget"
}

func explainRecommended(d Decision, all []Decision, budget decimal.Decimal) string {
	if d.Status == types.BudgetStatusOver {
		return fmt.Sprintf("Closest to budget; exceeds your $%s budget by $%s",
			budget.StringFixed(2), d.ExceedsBy.StringFixed(2))
	}

	cheapest, hasCheapest := cheapestWithin(all)
	if hasCheapest && cheapest.Route.RouteID == d.Route.RouteID {
		return fmt.Sprintf("Cheapest within your $%s budget", budget.StringFixed(2))
	}

	base := fmt.Sprintf("Fastest within your $%s budget", budget.StringFixed(2))

	if hasCheapest && cheapest.Toll.IsZero() {
		faster := etaDeltaMinutes(cheapest, d)
		extra := d.Toll.Sub(cheapest.Toll)
		if faster > 0 {
			return fmt.Sprintf("%s; %d min faster, costs $%s more than toll-free route",
				base, faster, extra.StringFixed(2))
		}
		return base
	}

	if hasCheapest {
		saved := etaDeltaMinutes(cheapest, d)
		if saved > 0 {
			return fmt.Sprintf("%s; saves %d min vs cheapest", base, saved)
		}
	}
	return base
}

// cheapestWithin returns the within-budget decision with the lowest toll,
// ties broken by the existing rank order.
func cheapestWithin(all []Decision) (Decision, bool) {
	var best Decision
	found := false
	for _, d := range all {
		if d.Status != types.BudgetStatusWithin {
			continue
		}
		if !found || d.Toll.LessThan(best.Toll) {
			best = d
			found = true
		}
	}
	return best, found
}

func find(all []Decision, routeID string) (Decision, bool) {
	for _, d := range all {
		if d.Route.RouteID == routeID {
			return d, true
		}
	}
	return Decision{}, false
}

// etaDeltaMinutes is how many whole minutes slower a is than b.
func etaDeltaMinutes(a, b Decision) int {
	return (a.Route.ETASeconds - b.Route.ETASeconds) / 60
}
