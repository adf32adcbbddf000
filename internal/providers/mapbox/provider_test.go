package mapbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tollwise/tollrouted/internal/tolls"
	"github.com/tollwise/tollrouted/internal/types"
)

func testTable(t *testing.T) *tolls.RateTable {
	t.Helper()
	table, err := tolls.NewRateTable([]tolls.Facility{
		{
			ID:          "mopac_express",
			Mode:        tolls.PricingDynamic,
			RatePerMile: decimal.NewFromFloat(0.95),
			Dynamic:     tolls.DefaultDynamicParams(2.5),
			Patterns:    []string{`mopac.*express`},
		},
		{
			ID:          "sh45_toll",
			Mode:        tolls.PricingFixed,
			RatePerMile: decimal.NewFromFloat(0.47),
			Patterns:    []string{`sh.*45`},
		},
	})
	require.NoError(t, err)
	return table
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const directionsPayload = `{
  "code": "Ok",
  "routes": [
    {
      "duration": 1800,
      "distance": 32186.8,
      "geometry": "encoded-polyline",
      "legs": [
        {
          "steps": [
            {"name": "MoPac Expressway Express Lane", "distance": 8046.7},
            {"name": "MoPac Expressway Express Lane", "distance": 1609.34},
            {"name": "Cesar Chavez St", "distance": 2000},
            {"name": "SH 45 Toll", "distance": 3218.68}
          ]
        }
      ]
    },
    {
      "duration": 2100,
      "distance": 35000,
      "geometry": "other-polyline",
      "legs": [{"steps": [{"name": "Lamar Blvd", "distance": 35000}]}]
    }
  ]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewProvider(&Config{
		AccessToken: "pk.test",
		BaseURL:     server.URL,
	}, testTable(t), testLogger())
}

func TestGetRouteCandidates(t *testing.T) {
	var gotURL string
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		fmt.Fprint(w, directionsPayload)
	})

	query := &types.RouteQuery{
		Origin:      types.Coordinates{Lat: 30.2672, Lng: -97.7431},
		Destination: types.Coordinates{Lat: 30.5083, Lng: -97.6789},
	}

	candidates, err := provider.GetRouteCandidates(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	first := candidates[0]
	assert.Equal(t, "mapbox-route-0", first.RouteID)
	assert.Equal(t, 1800, first.ETASeconds)
	assert.Equal(t, 32186, first.DistanceMeters)
	assert.Equal(t, "encoded-polyline", first.Polyline)

	// Consecutive steps on the same facility merge into one segment; the
	// untolled street contributes nothing.
	require.Len(t, first.Segments, 2)
	assert.Equal(t, "mopac_express", first.Segments[0].FacilityID)
	assert.InDelta(t, 6.0, first.Segments[0].Miles, 0.01)
	assert.Equal(t, "sh45_toll", first.Segments[1].FacilityID)
	assert.InDelta(t, 2.0, first.Segments[1].Miles, 0.01)

	second := candidates[1]
	assert.Equal(t, "mapbox-route-1", second.RouteID)
	assert.True(t, second.HasSegmentData())
	assert.Empty(t, second.Segments)

	assert.Contains(t, gotURL, "alternatives=true")
	assert.Contains(t, gotURL, "steps=true")
	assert.Contains(t, gotURL, "access_token=pk.test")
	// Longitude leads in the od-pair.
	assert.Contains(t, gotURL, "-97.743100,30.267200;-97.678900,30.508300")
}

func TestGetRouteCandidates_AvoidFlags(t *testing.T) {
	var gotURL string
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		fmt.Fprint(w, `{"code":"Ok","routes":[]}`)
	})

	query := &types.RouteQuery{
		Origin:        types.Coordinates{Lat: 30, Lng: -97},
		Destination:   types.Coordinates{Lat: 31, Lng: -98},
		AvoidTolls:    true,
		AvoidHighways: true,
	}

	_, err := provider.GetRouteCandidates(context.Background(), query)
	require.NoError(t, err)
	assert.Contains(t, gotURL, "exclude=toll%2Cmotorway")
}

func TestGetRouteCandidates_APIError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"InvalidInput","message":"bad coordinates"}`)
	})

	_, err := provider.GetRouteCandidates(context.Background(), &types.RouteQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidInput")
}

func TestGetRouteCandidates_HTTPError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := provider.GetRouteCandidates(context.Background(), &types.RouteQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHealthCheck(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, provider.HealthCheck(context.Background()))

	rejected := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := rejected.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected access token")

	noToken := NewProvider(&Config{}, testTable(t), testLogger())
	assert.Error(t, noToken.HealthCheck(context.Background()))
}
