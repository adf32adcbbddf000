package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tollwise/tollrouted/internal/config"
	"github.com/tollwise/tollrouted/internal/middleware"
	"github.com/tollwise/tollrouted/internal/optimizer"
	"github.com/tollwise/tollrouted/internal/providers"
	"github.com/tollwise/tollrouted/internal/providers/googlemaps"
	"github.com/tollwise/tollrouted/internal/providers/mapbox"
	"github.com/tollwise/tollrouted/internal/server"
	"github.com/tollwise/tollrouted/internal/tolls"
)

// Application represents the main application
type Application struct {
	config *config.Config
	server *server.Server
	logger *logrus.Logger
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logrus.New()
	if err := setupLogger(logger, cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	table, err := cfg.RateTable()
	if err != nil {
		return nil, fmt.Errorf("failed to build toll rate table: %w", err)
	}
	logger.WithField("facilities", table.Len()).Info("Toll rate table loaded")

	estimator := tolls.NewEstimator(table, logger)
	opt := optimizer.New(logger)

	serverInstance, err := server.NewServer(toServerConfig(cfg), estimator, opt, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	if err := registerProviders(serverInstance, cfg, table, logger); err != nil {
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}

	return &Application{
		config: cfg,
		server: serverInstance,
		logger: logger,
	}, nil
}

// Run starts the application
func (app *Application) Run() error {
	app.logger.Info("Starting tollrouted")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		app.logger.WithField("address", ":"+app.config.Server.Port).Info("HTTP server starting")
		if err := app.server.Start(); err != nil {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		app.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	app.logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.WithError(err).Error("Server shutdown error")
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("Graceful shutdown completed")
	return nil
}

// toServerConfig maps the loaded configuration onto the server's view.
func toServerConfig(cfg *config.Config) *server.Config {
	serverConfig := &server.Config{
		Port:               cfg.Server.Port,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		MaxHeaderBytes:     cfg.Server.MaxHeaderBytes,
		DefaultBudgetUSD:   cfg.Engine.DefaultBudgetUSD,
		SupplementTollFree: cfg.Engine.SupplementTollFree,
		RequestTimeout:     cfg.Engine.RequestTimeout,
	}

	if len(cfg.Security.APIKeys) > 0 || cfg.Security.JWTSecret != "" || cfg.Security.RateLimiting.Enabled {
		serverConfig.Security = &middleware.SecurityConfig{
			APIKeys:           cfg.Security.APIKeys,
			JWTSecret:         cfg.Security.JWTSecret,
			RateLimitEnabled:  cfg.Security.RateLimiting.Enabled,
			RequestsPerMinute: cfg.Security.RateLimiting.RequestsPerMinute,
			BurstSize:         cfg.Security.RateLimiting.BurstSize,
			AllowedOrigins:    cfg.Security.CORS.AllowedOrigins,
		}
	}

	if cfg.Security.Validation.Enabled {
		serverConfig.Validation = &middleware.ValidationConfig{
			Enabled:  true,
			SpecPath: cfg.Security.Validation.SpecPath,
		}
	}

	return serverConfig
}

// setupLogger configures the logger based on configuration
func setupLogger(logger *logrus.Logger, config config.LoggingConfig) error {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	logger.SetLevel(level)

	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	default:
		return fmt.Errorf("invalid log format: %s", config.Format)
	}

	switch config.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		logger.SetOutput(file)
	}

	return nil
}

// registerProviders registers all configured routing providers with the
// server, wrapping each in the directions cache when one is configured.
func registerProviders(srv *server.Server, cfg *config.Config, table *tolls.RateTable, logger *logrus.Logger) error {
	providersRegistered := 0

	if cfg.Providers.Mapbox != nil && cfg.Providers.Mapbox.AccessToken != "" {
		mapboxProvider := mapbox.NewProvider(cfg.Providers.Mapbox, table, logger)
		srv.RegisterProvider(providers.NewCachingProvider(mapboxProvider, cfg.Providers.Cache, logger))
		providersRegistered++
	}

	if cfg.Providers.Google != nil && cfg.Providers.Google.APIKey != "" {
		googleProvider, err := googlemaps.NewProvider(cfg.Providers.Google, table, logger)
		if err != nil {
			return fmt.Errorf("failed to create google maps provider: %w", err)
		}
		srv.RegisterProvider(providers.NewCachingProvider(googleProvider, cfg.Providers.Cache, logger))
		providersRegistered++
	}

	if providersRegistered == 0 {
		return fmt.Errorf("no providers were registered - check your configuration and API keys")
	}

	if cfg.Providers.Default != "" {
		if err := srv.SetDefaultProvider(cfg.Providers.Default); err != nil {
			return err
		}
	}

	logger.WithField("count", providersRegistered).Info("Provider registration completed")
	return nil
}

// printUsage prints application usage information
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  MAPBOX_ACCESS_TOKEN           Mapbox access token\n")
	fmt.Fprintf(os.Stderr, "  GOOGLE_MAPS_API_KEY           Google Maps API key\n")
	fmt.Fprintf(os.Stderr, "  TOLLROUTED_PORT               Server port (default: 8080)\n")
	fmt.Fprintf(os.Stderr, "  TOLLROUTED_REDIS_ADDR         Redis address for the directions cache\n")
	fmt.Fprintf(os.Stderr, "  TOLLROUTED_DEFAULT_PROVIDER   Default routing provider (mapbox,googlemaps)\n")
	fmt.Fprintf(os.Stderr, "  TOLLROUTED_LOG_LEVEL          Log level (debug,info,warn,error,fatal)\n")
	fmt.Fprintf(os.Stderr, "  TOLLROUTED_LOG_FORMAT         Log format (json,text)\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s --config configs/config.yaml\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  MAPBOX_ACCESS_TOKEN=pk.xxx %s\n", os.Args[0])
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		showHelp   = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if *version {
		fmt.Printf("tollrouted v1.0.0\n")
		os.Exit(0)
	}

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}
