package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tollwise/tollrouted/internal/middleware"
	"github.com/tollwise/tollrouted/internal/optimizer"
	"github.com/tollwise/tollrouted/internal/providers"
	"github.com/tollwise/tollrouted/internal/tolls"
	"github.com/tollwise/tollrouted/internal/types"
)

// Server represents the HTTP server
type Server struct {
	providers       map[string]providers.RouteProvider
	defaultProvider string
	estimator       *tolls.Estimator
	optimizer       *optimizer.Optimizer
	httpServer      *http.Server
	logger          *logrus.Logger
	config          *Config

	securityMiddleware   *middleware.SecurityMiddleware
	validationMiddleware *middleware.ValidationMiddleware
}

// Config holds server configuration
type Config struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int

	// DefaultBudgetUSD applies when a request omits toll_budget_usd.
	DefaultBudgetUSD float64

	// SupplementTollFree issues an extra avoid-tolls query when the
	// primary candidate set contains no toll-free route.
	SupplementTollFree bool

	RequestTimeout time.Duration

	Security   *middleware.SecurityConfig
	Validation *middleware.ValidationConfig
}

// NewServer creates a new server instance
func NewServer(config *Config, estimator *tolls.Estimator, opt *optimizer.Optimizer, logger *logrus.Logger) (*Server, error) {
	server := &Server{
		providers: make(map[string]providers.RouteProvider),
		estimator: estimator,
		optimizer: opt,
		logger:    logger,
		config:    config,
	}

	if config.Security != nil {
		server.securityMiddleware = middleware.NewSecurityMiddleware(config.Security, logger)
	}

	if config.Validation != nil {
		validationMiddleware, err := middleware.NewValidationMiddleware(config.Validation, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize validation middleware: %w", err)
		}
		server.validationMiddleware = validationMiddleware
	}

	return server, nil
}

// RegisterProvider adds a routing collaborator. The first registered
// provider becomes the default unless SetDefaultProvider overrides it.
func (s *Server) RegisterProvider(p providers.RouteProvider) {
	name := p.GetProviderName()
	if len(s.providers) == 0 {
		s.defaultProvider = name
	}
	s.providers[name] = p
	s.logger.WithField("provider", name).Info("Route provider registered")
}

// SetDefaultProvider selects which registered provider serves requests
// that do not name one.
func (s *Server) SetDefaultProvider(name string) error {
	if _, ok := s.providers[name]; !ok {
		return fmt.Errorf("provider %s is not registered", name)
	}
	s.defaultProvider = name
	return nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	r := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           ":" + s.config.Port,
		Handler:        r,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	s.logger.WithField("port", s.config.Port).Info("Starting toll route server")
	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping toll route server")
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	if s.securityMiddleware != nil {
		r.Use(s.securityMiddleware.Handler())
	}

	r.Use(s.loggingMiddleware)
	r.Use(s.contentTypeMiddleware)
	if s.validationMiddleware != nil {
		r.Use(s.validationMiddleware.Middleware)
	}

	api := r.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/routes/optimize", s.handleOptimize).Methods("POST")
	api.HandleFunc("/facilities", s.handleListFacilities).Methods("GET")
	api.HandleFunc("/facilities/{id}", s.handleGetFacility).Methods("GET")
	api.HandleFunc("/providers", s.handleListProviders).Methods("GET")

	// Health check endpoint (no /v1 prefix)
	r.HandleFunc("/health", s.handleHealthCheck).Methods("GET")

	// Swagger/OpenAPI docs
	s.setupSwaggerRoutes(r)

	return r
}

// Middleware

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" || r.Method == "PUT" {
			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && contentType != "" {
				s.writeErrorResponse(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handlers

// handleOptimize runs the full pipeline: fetch candidates, estimate
// tolls, rank against the budget.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req types.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	if !req.Origin.Valid() || !req.Destination.Valid() {
		s.writeErrorResponse(w, http.StatusBadRequest, "Origin and destination must be valid WGS84 coordinates")
		return
	}

	departAt := time.Now()
	if req.DepartAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.DepartAt)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid depart_at timestamp: %v", err))
			return
		}
		departAt = parsed
	}

	prefs := req.Preferences
	if prefs == nil {
		prefs = &types.RoutePreferences{}
	}
	budget := decimal.NewFromFloat(s.config.DefaultBudgetUSD)
	if prefs.TollBudgetUSD != nil {
		budget = decimal.NewFromFloat(*prefs.TollBudgetUSD)
	}

	provider, err := s.resolveProvider(req.Provider)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	query := &types.RouteQuery{
		Origin:        req.Origin,
		Destination:   req.Destination,
		AvoidTolls:    prefs.AvoidTolls,
		AvoidHighways: prefs.AvoidHighways,
		DepartAt:      departAt,
	}

	candidates, err := provider.GetRouteCandidates(ctx, query)
	if err != nil {
		s.logger.WithError(err).WithField("provider", provider.GetProviderName()).Error("Route query failed")
		s.writeErrorResponse(w, http.StatusBadGateway, fmt.Sprintf("Route provider failed: %v", err))
		return
	}

	if s.config.SupplementTollFree && !prefs.AvoidTolls {
		candidates = s.supplementTollFree(ctx, provider, query, candidates)
	}

	if prefs.AvoidTolls {
		candidates = dropTolled(candidates)
	}

	estimates := make([]types.EstimatedRoute, 0, len(candidates))
	advisories := []string{}
	for _, candidate := range candidates {
		congestion := tolls.UniformCongestion(candidate, candidate.Congestion)
		est, err := s.estimator.Estimate(candidate, departAt, congestion)
		if err != nil {
			s.writeErrorResponse(w, http.StatusUnprocessableEntity, fmt.Sprintf("Toll estimation failed: %v", err))
			return
		}
		if est.Degraded {
			advisories = append(advisories, fmt.Sprintf(
				"Route %s has no road-level data; toll estimate of $0.00 may be incomplete.", candidate.RouteID))
		}
		estimates = append(estimates, est)
	}

	result, err := s.optimizer.Optimize(estimates, budget)
	if err != nil {
		if errors.Is(err, optimizer.ErrNoRoutesAvailable) {
			s.writeErrorResponse(w, http.StatusNotFound, "No routes available between origin and destination")
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Optimization failed: %v", err))
		return
	}

	response := buildOptimizeResponse(result, advisories)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// resolveProvider picks the requested collaborator, or the default when
// the request names none.
func (s *Server) resolveProvider(name string) (providers.RouteProvider, error) {
	if name == "" {
		name = s.defaultProvider
	}
	provider, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown route provider %q", name)
	}
	return provider, nil
}

// supplementTollFree ensures a toll-free alternative is visible in the
// ranking. When no primary candidate is toll-free, one extra avoid-tolls
// query runs and its routes join the pool, skipping any close in length
// to an existing candidate.
func (s *Server) supplementTollFree(ctx context.Context, provider providers.RouteProvider, query *types.RouteQuery, candidates []types.RouteCandidate) []types.RouteCandidate {
	for _, c := range candidates {
		if c.HasSegmentData() && !c.Tolled() {
			return candidates
		}
	}

	tollFreeQuery := *query
	tollFreeQuery.AvoidTolls = true
	extra, err := provider.GetRouteCandidates(ctx, &tollFreeQuery)
	if err != nil {
		s.logger.WithError(err).Warn("Toll-free supplement query failed")
		return candidates
	}

	const dedupeMeters = 1000
	for i, c := range extra {
		duplicate := false
		for _, existing := range candidates {
			if math.Abs(float64(existing.DistanceMeters-c.DistanceMeters)) < dedupeMeters {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		c.RouteID = fmt.Sprintf("tollfree-route-%d", i)
		candidates = append(candidates, c)
	}
	return candidates
}

// dropTolled removes candidates with toll segments; the provider-level
// exclusion is not always airtight.
func dropTolled(candidates []types.RouteCandidate) []types.RouteCandidate {
	kept := make([]types.RouteCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Tolled() {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// buildOptimizeResponse converts the optimizer result to the wire form.
func buildOptimizeResponse(result *optimizer.Result, advisories []string) types.OptimizeResponse {
	response := types.OptimizeResponse{
		BudgetUSD:          result.BudgetUSD.InexactFloat64(),
		RecommendedRouteID: result.RecommendedRouteID,
		RoutesRanked:       make([]types.RankedRoute, 0, len(result.Ranked)),
		Advisories:         append(advisories, result.Advisories...),
	}

	for _, d := range result.Ranked {
		response.RoutesRanked = append(response.RoutesRanked, types.RankedRoute{
			RouteID:         d.Route.RouteID,
			ETASeconds:      d.Route.ETASeconds,
			DistanceMeters:  d.Route.DistanceMeters,
			TollEstimateUSD: d.Toll.InexactFloat64(),
			BudgetStatus:    d.Status,
			ExceedsByUSD:    d.ExceedsBy.InexactFloat64(),
			Rank:            d.Rank,
			Reason:          d.Reason,
			Polyline:        d.Route.Polyline,
		})
	}

	return response
}

// handleListFacilities lists the toll facility registry
func (s *Server) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities := s.estimator.Table().Facilities()

	infos := make([]types.FacilityInfo, 0, len(facilities))
	for _, f := range facilities {
		infos = append(infos, facilityInfo(f))
	}

	response := map[string]interface{}{
		"facilities": infos,
		"count":      len(infos),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleGetFacility gets one facility by id
func (s *Server) handleGetFacility(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	facility, err := s.estimator.Table().Lookup(id)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, fmt.Sprintf("Facility %s not found", id))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(facilityInfo(facility))
}

func facilityInfo(f tolls.Facility) types.FacilityInfo {
	info := types.FacilityInfo{
		ID:              f.ID,
		Description:     f.Description,
		Region:          f.Region,
		PricingMode:     string(f.Mode),
		BaseRatePerMile: f.RatePerMile.InexactFloat64(),
	}
	if f.Dynamic != nil {
		info.PeakMultiplier = f.Dynamic.PeakMultiplier
	}
	return info
}

// handleListProviders lists all registered providers
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	response := map[string]interface{}{
		"providers": names,
		"default":   s.defaultProvider,
		"count":     len(names),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleHealthCheck returns overall health status
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := make(map[string]string, len(s.providers))
	overallHealthy := true
	for name, provider := range s.providers {
		if err := provider.HealthCheck(r.Context()); err != nil {
			health[name] = err.Error()
			overallHealthy = false
			continue
		}
		health[name] = "healthy"
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !overallHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":     status,
		"providers":  health,
		"facilities": s.estimator.Table().Len(),
		"timestamp":  time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// Helper functions

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := types.ErrorResponse{
		Error: types.ErrorDetail{
			Message: message,
			Type:    "api_error",
			Code:    statusCode,
		},
	}

	json.NewEncoder(w).Encode(errorResp)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
