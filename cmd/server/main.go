// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tfu/musify/internal/api/rest"
	"github.com/tfu/musify/internal/app/playback"
	"github.com/tfu/musify/internal/app/recommend"
	"github.com/tfu/musify/internal/app/resilience"
	"github.com/tfu/musify/internal/infra/config"
	"github.com/tfu/musify/internal/infra/logger"
	"github.com/tfu/musify/internal/infra/memory"
	"github.com/tfu/musify/internal/infra/metrics"
	"github.com/tfu/musify/internal/infra/spotify"
	"github.com/tfu/musify/internal/infra/sqlite"
	"github.com/tfu/musify/internal/infra/stream"
)

var (
	app        = kingpin.New("musify-server", "Musify playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Track catalog
	catalog, err := newCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}

	// History store
	histStore, closeHist, err := newHistoryStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create history store: %w", err)
	}
	defer closeHist()

	// Stream resolution with retry, circuit breaking, and fallback
	streamClient := stream.New(cfg.Stream.BaseURL)
	resolver := resilience.NewResolver(streamClient.GetStreamURL, resilience.Config{
		MaxAttempts:    cfg.Stream.Retry.MaxAttempts,
		RetryDelay:     time.Duration(cfg.Stream.Retry.DelayMs) * time.Millisecond,
		Timeout:        time.Duration(cfg.Stream.TimeoutMs) * time.Millisecond,
		FallbackPrefix: cfg.Stream.FallbackURLPrefix,
		Breaker: resilience.BreakerConfig{
			WindowSize:       cfg.Stream.Breaker.WindowSize,
			FailureThreshold: cfg.Stream.Breaker.FailureRatePct,
			MinimumCalls:     cfg.Stream.Breaker.MinimumCalls,
			OpenDuration:     time.Duration(cfg.Stream.Breaker.OpenDurationMs) * time.Millisecond,
			HalfOpenMaxCalls: cfg.Stream.Breaker.HalfOpenMaxCalls,
		},
	})

	registry := metrics.NewRegistry()
	engine := recommend.NewEngine(catalog, cfg.Playback.RecommendationLimit)

	orch := playback.NewOrchestrator(
		playback.NewSessionStore(),
		catalog,
		histStore,
		resolver,
		engine,
		registry,
	)

	router := rest.NewRouter(rest.NewHandler(orch, registry), cfg.Auth.JWTSecret)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// newCatalog creates the configured track catalog adapter.
func newCatalog(ctx context.Context, cfg *config.Config) (playback.TrackCatalog, error) {
	switch cfg.Catalog.Type {
	case "spotify":
		return spotify.NewCatalog(ctx, cfg.Catalog.Settings)
	default:
		return memory.NewCatalogFromSettings(cfg.Catalog.Settings)
	}
}

// newHistoryStore creates the configured history store adapter.
func newHistoryStore(cfg *config.Config) (playback.HistoryStore, func(), error) {
	if cfg.History.Driver == "memory" {
		return memory.NewHistoryStore(), func() {}, nil
	}

	store, err := sqlite.NewHistoryStore(cfg.History.DSN)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			zlog.Warn().Msgf("Failed to close history store: %v", err)
		}
	}, nil
}
