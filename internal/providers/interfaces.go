package providers

import (
	"context"

	"github.com/tollwise/tollrouted/internal/types"
)

// RouteProvider is a routing collaborator: it turns an origin/destination
// query into candidate routes with segment decompositions. All blocking
// I/O of the system lives behind this interface; the core engine is
// invoked only after candidates are in hand.
type RouteProvider interface {
	GetProviderName() string
	GetRouteCandidates(ctx context.Context, query *types.RouteQuery) ([]types.RouteCandidate, error)
	HealthCheck(ctx context.Context) error
}
