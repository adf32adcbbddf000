package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tollwise/tollrouted/internal/providers"
	"github.com/tollwise/tollrouted/internal/providers/googlemaps"
	"github.com/tollwise/tollrouted/internal/providers/mapbox"
	"github.com/tollwise/tollrouted/internal/tolls"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Tolls     TollsConfig     `yaml:"tolls"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// EngineConfig holds optimization engine configuration
type EngineConfig struct {
	// DefaultBudgetUSD applies when a request omits toll_budget_usd.
	DefaultBudgetUSD float64 `yaml:"default_budget_usd"`

	// SupplementTollFree issues an extra avoid-tolls query when the
	// primary candidate set contains no toll-free route, so the no-toll
	// alternative is always visible in the ranking.
	SupplementTollFree bool `yaml:"supplement_toll_free"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// TollsConfig holds the static facility registry
type TollsConfig struct {
	Facilities []FacilityConfig `yaml:"facilities"`
}

// FacilityConfig is the yaml form of one toll facility
type FacilityConfig struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Region      string   `yaml:"region"`
	PricingMode string   `yaml:"pricing_mode"`
	RatePerMile float64  `yaml:"rate_per_mile"`
	Patterns    []string `yaml:"patterns"`

	// Dynamic pricing parameters; only read when pricing_mode is DYNAMIC.
	// Unset fields fall back to the canonical curve.
	PeakMultiplier      float64 `yaml:"peak_multiplier,omitempty"`
	MiddayMultiplier    float64 `yaml:"midday_multiplier,omitempty"`
	OffPeakMultiplier   float64 `yaml:"off_peak_multiplier,omitempty"`
	CongestionThreshold float64 `yaml:"congestion_threshold,omitempty"`
	CongestionFactor    float64 `yaml:"congestion_factor,omitempty"`
	MorningPeak         string  `yaml:"morning_peak,omitempty"`
	EveningPeak         string  `yaml:"evening_peak,omitempty"`
	Midday              string  `yaml:"midday,omitempty"`
	OffPeak             string  `yaml:"off_peak,omitempty"`
}

// ProvidersConfig holds configuration for all routing collaborators
type ProvidersConfig struct {
	Default string                 `yaml:"default"`
	Mapbox  *mapbox.Config         `yaml:"mapbox"`
	Google  *googlemaps.Config     `yaml:"google"`
	Cache   *providers.CacheConfig `yaml:"cache"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	Output string `yaml:"output"` // "stdout", "stderr", or file path
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	APIKeys      []string         `yaml:"api_keys"`
	JWTSecret    string           `yaml:"jwt_secret"`
	RateLimiting RateLimitConfig  `yaml:"rate_limiting"`
	Validation   ValidationConfig `yaml:"request_validation"`
	CORS         CORSConfig       `yaml:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	BurstSize         int  `yaml:"burst_size"`
}

// ValidationConfig holds OpenAPI request validation configuration
type ValidationConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SpecPath string `yaml:"spec_path"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	config.setDefaults()

	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	config.loadFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from YAML file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("TOLLROUTED_PORT"); port != "" {
		c.Server.Port = port
	}

	if token := os.Getenv("MAPBOX_ACCESS_TOKEN"); token != "" {
		if c.Providers.Mapbox == nil {
			c.Providers.Mapbox = &mapbox.Config{}
		}
		c.Providers.Mapbox.AccessToken = token
	}

	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		if c.Providers.Google == nil {
			c.Providers.Google = &googlemaps.Config{}
		}
		c.Providers.Google.APIKey = key
	}

	if addr := os.Getenv("TOLLROUTED_REDIS_ADDR"); addr != "" {
		if c.Providers.Cache == nil {
			c.Providers.Cache = &providers.CacheConfig{}
		}
		c.Providers.Cache.Addr = addr
	}

	if name := os.Getenv("TOLLROUTED_DEFAULT_PROVIDER"); name != "" {
		c.Providers.Default = name
	}

	if level := os.Getenv("TOLLROUTED_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if format := os.Getenv("TOLLROUTED_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Engine.DefaultBudgetUSD < 0 {
		return fmt.Errorf("default budget cannot be negative")
	}

	if len(c.Tolls.Facilities) == 0 {
		return fmt.Errorf("at least one toll facility must be configured")
	}

	providerCount := 0
	if c.Providers.Mapbox != nil && c.Providers.Mapbox.AccessToken != "" {
		providerCount++
	}
	if c.Providers.Google != nil && c.Providers.Google.APIKey != "" {
		providerCount++
	}
	if providerCount == 0 {
		return fmt.Errorf("at least one routing provider must be configured")
	}

	switch c.Providers.Default {
	case "", "mapbox", "googlemaps":
	default:
		return fmt.Errorf("invalid default provider: %s", c.Providers.Default)
	}

	return nil
}

// RateTable builds the immutable facility registry from configuration.
func (c *Config) RateTable() (*tolls.RateTable, error) {
	facilities := make([]tolls.Facility, 0, len(c.Tolls.Facilities))
	for _, fc := range c.Tolls.Facilities {
		f, err := fc.toFacility()
		if err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return tolls.NewRateTable(facilities)
}

// toFacility converts the yaml form to the runtime facility.
func (fc FacilityConfig) toFacility() (tolls.Facility, error) {
	f := tolls.Facility{
		ID:          fc.ID,
		Description: fc.Description,
		Region:      fc.Region,
		RatePerMile: decimal.NewFromFloat(fc.RatePerMile),
		Patterns:    fc.Patterns,
	}

	switch strings.ToUpper(fc.PricingMode) {
	case string(tolls.PricingFixed), "":
		f.Mode = tolls.PricingFixed
	case string(tolls.PricingDynamic):
		f.Mode = tolls.PricingDynamic
		peak := fc.PeakMultiplier
		if peak == 0 {
			peak = 2.0
		}
		params := tolls.DefaultDynamicParams(peak)
		if fc.MiddayMultiplier != 0 {
			params.MiddayMultiplier = fc.MiddayMultiplier
		}
		if fc.OffPeakMultiplier != 0 {
			params.OffPeakMultiplier = fc.OffPeakMultiplier
		}
		if fc.CongestionThreshold != 0 {
			params.CongestionThreshold = fc.CongestionThreshold
		}
		if fc.CongestionFactor != 0 {
			params.CongestionFactor = fc.CongestionFactor
		}
		for _, w := range []struct {
			raw    string
			target *tolls.Window
		}{
			{fc.MorningPeak, &params.MorningPeak},
			{fc.EveningPeak, &params.EveningPeak},
			{fc.Midday, &params.Midday},
			{fc.OffPeak, &params.OffPeak},
		} {
			if w.raw == "" {
				continue
			}
			parsed, err := parseWindow(w.raw)
			if err != nil {
				return tolls.Facility{}, fmt.Errorf("facility %q: %w", fc.ID, err)
			}
			*w.target = parsed
		}
		f.Dynamic = params
	default:
		return tolls.Facility{}, fmt.Errorf("facility %q: unknown pricing mode %q", fc.ID, fc.PricingMode)
	}

	return f, nil
}

// parseWindow parses "HH:MM-HH:MM" into a daily window.
func parseWindow(raw string) (tolls.Window, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return tolls.Window{}, fmt.Errorf("invalid time window %q", raw)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return tolls.Window{}, fmt.Errorf("invalid time window %q: %w", raw, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return tolls.Window{}, fmt.Errorf("invalid time window %q: %w", raw, err)
	}
	return tolls.Window{Start: start, End: end}, nil
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// SaveToFile saves the current configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
