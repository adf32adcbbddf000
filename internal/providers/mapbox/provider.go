package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tollwise/tollrouted/internal/providers"
	"github.com/tollwise/tollrouted/internal/tolls"
	"github.com/tollwise/tollrouted/internal/types"
)

// DefaultBaseURL is the Mapbox Directions v5 endpoint.
const DefaultBaseURL = "https://api.mapbox.com/directions/v5/mapbox"

// Config holds Mapbox-specific configuration.
type Config struct {
	AccessToken string        `yaml:"access_token"`
	BaseURL     string        `yaml:"base_url"`
	Profile     string        `yaml:"profile"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Provider implements the RouteProvider interface against the Mapbox
// Directions API. Step-level road names are resolved to toll facilities
// through the rate table's matcher; steps on unmatched roads contribute
// untolled distance only.
type Provider struct {
	config *Config
	client *http.Client
	table  *tolls.RateTable
	logger *logrus.Logger
}

// NewProvider creates a Mapbox provider instance.
func NewProvider(config *Config, table *tolls.RateTable, logger *logrus.Logger) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Profile == "" {
		config.Profile = "driving-traffic"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Provider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		table:  table,
		logger: logger,
	}
}

// GetProviderName returns the provider name.
func (p *Provider) GetProviderName() string {
	return "mapbox"
}

// directionsResponse mirrors the slice of the Directions v5 payload this
// provider consumes.
type directionsResponse struct {
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Routes  []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Duration float64         `json:"duration"`
	Distance float64         `json:"distance"`
	Geometry string          `json:"geometry"`
	Legs     []directionsLeg `json:"legs"`
}

type directionsLeg struct {
	Steps []directionsStep `json:"steps"`
}

type directionsStep struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// GetRouteCandidates fetches alternative routes for the query and
// decomposes each into toll segments.
func (p *Provider) GetRouteCandidates(ctx context.Context, query *types.RouteQuery) ([]types.RouteCandidate, error) {
	reqURL := p.buildURL(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directions request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mapbox directions call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapbox directions returned status %d", resp.StatusCode)
	}

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode directions response: %w", err)
	}
	if payload.Code != "Ok" {
		return nil, fmt.Errorf("mapbox directions error: %s %s", payload.Code, payload.Message)
	}

	candidates := make([]types.RouteCandidate, 0, len(payload.Routes))
	for i, route := range payload.Routes {
		candidates = append(candidates, p.convertRoute(i, route))
	}

	p.logger.WithFields(logrus.Fields{
		"provider":   "mapbox",
		"candidates": len(candidates),
	}).Debug("Route candidates fetched")

	return candidates, nil
}

// buildURL assembles the Directions v5 request for the query.
func (p *Provider) buildURL(query *types.RouteQuery) string {
	coords := fmt.Sprintf("%f,%f;%f,%f",
		query.Origin.Lng, query.Origin.Lat,
		query.Destination.Lng, query.Destination.Lat)

	params := url.Values{}
	params.Set("access_token", p.config.AccessToken)
	params.Set("alternatives", "true")
	params.Set("geometries", "polyline")
	params.Set("overview", "full")
	params.Set("steps", "true")

	var exclude []string
	if query.AvoidTolls {
		exclude = append(exclude, "toll")
	}
	if query.AvoidHighways {
		exclude = append(exclude, "motorway")
	}
	if len(exclude) > 0 {
		params.Set("exclude", strings.Join(exclude, ","))
	}

	return fmt.Sprintf("%s/%s/%s?%s", p.config.BaseURL, p.config.Profile, coords, params.Encode())
}

// convertRoute maps one directions route onto a candidate, merging
// consecutive steps on the same facility into a single segment.
func (p *Provider) convertRoute(index int, route directionsRoute) types.RouteCandidate {
	candidate := types.RouteCandidate{
		RouteID:        fmt.Sprintf("mapbox-route-%d", index),
		ETASeconds:     int(route.Duration),
		DistanceMeters: int(route.Distance),
		Polyline:       route.Geometry,
	}

	hasSteps := false
	segments := []types.RouteSegment{}
	for _, leg := range route.Legs {
		for _, step := range leg.Steps {
			hasSteps = true
			facility, ok := p.table.Match(step.Name)
			if !ok {
				continue
			}
			miles := step.Distance / types.MetersPerMile
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

// HealthCheck verifies the access token is accepted by the API.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.config.AccessToken == "" {
		return fmt.Errorf("mapbox access token is not configured")
	}

	probe := fmt.Sprintf("%s/%s/0,0;0.1,0.1?access_token=%s",
		p.config.BaseURL, p.config.Profile, url.QueryEscape(p.config.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("mapbox unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("mapbox rejected access token (status %d)", resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("mapbox unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}
