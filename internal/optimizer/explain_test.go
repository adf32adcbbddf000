package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tollwise/tollrouted/internal/types"
)

func TestExplain_FastestVsTollFree(t *testing.T) {
	o := New(testLogger())

	result, err := o.Optimize([]types.EstimatedRoute{
		estimated("express", 1800, 25000, 6.50),
		estimated("surface", 2400, 28000, 0),
	}, budget(10))
	require.NoError(t, err)

	require.Equal(t, "express", result.RecommendedRouteID)
	assert.Equal(t,
		"Fastest within your $10.00 budget; 10 min faster, costs $6.50 more than toll-free route",
		result.Ranked[0].Reason)
	assert.Equal(t,
		"Toll-free alternative (+10 min vs recommended)",
		result.Ranked[1].Reason)
}

func TestExplain_CheapestWithinBudget(t *testing.T) {
	o := New(testLogger())

	// The recommended route is also the cheapest in budget.
	result, err := o.Optimize([]types.EstimatedRoute{
		estimated("express", 1500, 22000, 4.00),
		estimated("parkway", 1800, 25000, 7.00),
	}, budget(10))
	require.NoError(t, err)

	require.Equal(t, "express", result.RecommendedRouteID)
	assert.Equal(t, "Cheapest within your $10.00 budget", result.Ranked[0].Reason)
	assert.Equal(t, "Within budget (+5 min vs recommended)", result.Ranked[1].Reason)
}

func TestExplain_FastestSavesVsCheapest(t *testing.T) {
	o := New(testLogger())

	// Cheapest is tolled, not toll-free; the recommended is faster.
	result, err := o.Optimize([]types.EstimatedRoute{
		estimated("express", 1500, 22000, 8.00),
		estimated("parkway", 2100, 25000, 3.00),
	}, budget(10))
	require.NoError(t, err)

	require.Equal(t, "express", result.RecommendedRouteID)
	assert.Equal(t,
		"Fastest within your $10.00 budget; saves 10 min vs cheapest",
		result.Ranked[0].Reason)
}

func TestExplain_OverBudgetEntries(t *testing.T) {
	o := New(testLogger())

	result, err := o.Optimize([]types.EstimatedRoute{
		estimated("within", 1800, 25000, 6.00),
		estimated("over", 1500, 22000, 13.50),
	}, budget(10))
	require.NoError(t, err)

	require.Equal(t, "within", result.RecommendedRouteID)
	assert.Equal(t, "Exceeds budget by $3.50", result.Ranked[1].Reason)
}

func TestExplain_RecommendedOverBudget(t *testing.T) {
	o := New(testLogger())

	result, err := o.Optimize([]types.EstimatedRoute{
		estimated("only", 1500, 22000, 12.00),
	}, budget(10))
	require.NoError(t, err)

	require.Equal(t, "only", result.RecommendedRouteID)
	assert.Equal(t,
		"Closest to budget; exceeds your $10.00 budget by $2.00",
		result.Ranked[0].Reason)
}
