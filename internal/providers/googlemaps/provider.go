package googlemaps

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"googlemaps.github.io/maps"

	"github.com/tollwise/tollrouted/internal/providers"
	"github.com/tollwise/tollrouted/internal/tolls"
	"github.com/tollwise/tollrouted/internal/types"
)

// Config holds Google Maps specific configuration.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Provider implements the RouteProvider interface on top of the Google
// Directions API. Google reports step-level road names inside HTML
// instructions, so instructions are stripped to plain text before the
// rate table's facility matcher runs over them.
type Provider struct {
	client *maps.Client
	config *Config
	table  *tolls.RateTable
	logger *logrus.Logger
}

// NewProvider creates a Google Maps provider instance.
func NewProvider(config *Config, table *tolls.RateTable, logger *logrus.Logger) (*Provider, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(config.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google maps client: %w", err)
	}

	return &Provider{
		client: client,
		config: config,
		table:  table,
		logger: logger,
	}, nil
}

// GetProviderName returns the provider name.
func (p *Provider) GetProviderName() string {
	return "googlemaps"
}

// GetRouteCandidates fetches alternative driving routes for the query.
func (p *Provider) GetRouteCandidates(ctx context.Context, query *types.RouteQuery) ([]types.RouteCandidate, error) {
	req := &maps.DirectionsRequest{
		Origin:       fmt.Sprintf("%f,%f", query.Origin.Lat, query.Origin.Lng),
		Destination:  fmt.Sprintf("%f,%f", query.Destination.Lat, query.Destination.Lng),
		Mode:         maps.TravelModeDriving,
		Alternatives: true,
	}
	if !query.DepartAt.IsZero() {
		req.DepartureTime = fmt.Sprintf("%d", query.DepartAt.Unix())
	}
	if query.AvoidTolls {
		req.Avoid = append(req.Avoid, maps.AvoidTolls)
	}
	if query.AvoidHighways {
		req.Avoid = append(req.Avoid, maps.AvoidHighways)
	}

	routes, _, err := p.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("google directions call failed: %w", err)
	}

	candidates := make([]types.RouteCandidate, 0, len(routes))
	for i, route := range routes {
		candidates = append(candidates, p.convertRoute(i, route))
	}

	p.logger.WithFields(logrus.Fields{
		"provider":   "googlemaps",
		"candidates": len(candidates),
	}).Debug("Route candidates fetched")

	return candidates, nil
}

// convertRoute maps one directions route onto a candidate.
func (p *Provider) convertRoute(index int, route maps.Route) types.RouteCandidate {
	candidate := types.RouteCandidate{
		RouteID:  fmt.Sprintf("google-route-%d", index),
		Polyline: route.OverviewPolyline.Points,
	}

	hasSteps := false
	segments := []types.RouteSegment{}
	for _, leg := range route.Legs {
		candidate.DistanceMeters += leg.Distance.Meters
		if leg.DurationInTraffic > 0 {
			candidate.ETASeconds += int(leg.DurationInTraffic.Seconds())
		} else {
			candidate.ETASeconds += int(leg.Duration.Seconds())
		}

		for _, step := range leg.Steps {
			hasSteps = true
			facility, ok := p.table.Match(StripInstructions(step.HTMLInstructions))
			if !ok {
				continue
			}
			miles := float64(step.Distance.Meters) / types.MetersPerMile
			if n := len(segments); n > 0 && segments[n-1].FacilityID == facility.ID {
				segments[n-1].Miles += miles
				continue
			}
			segments = append(segments, types.RouteSegment{FacilityID: facility.ID, Miles: miles})
		}
	}

	if hasSteps {
		candidate.Segments = segments
	}
	candidate.Congestion = providers.CongestionSignal(candidate.ETASeconds, candidate.DistanceMeters)
	return candidate
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// StripInstructions reduces an HTML direction instruction to the plain
// road-name text the facility matcher expects.
func StripInstructions(instruction string) string {
	text := htmlTag.ReplaceAllString(instruction, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// HealthCheck verifies the API key is accepted. A zero-results answer
// still proves the credential works.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.config.APIKey == "" {
		return fmt.Errorf("google maps api key is not configured")
	}

	req := &maps.DirectionsRequest{
		Origin:      "0,0",
		Destination: "0.1,0.1",
		Mode:        maps.TravelModeDriving,
	}
	_, _, err := p.client.Directions(ctx, req)
	if err != nil && !strings.Contains(err.Error(), "ZERO_RESULTS") && !strings.Contains(err.Error(), "NOT_FOUND") {
		return fmt.Errorf("google maps unhealthy: %w", err)
	}
	return nil
}
