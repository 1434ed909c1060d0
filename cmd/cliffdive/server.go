package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/EdwardH92/CliffDive/internal/clock"
	"github.com/EdwardH92/CliffDive/internal/config"
	"github.com/EdwardH92/CliffDive/internal/detector"
	"github.com/EdwardH92/CliffDive/internal/event"
	"github.com/EdwardH92/CliffDive/internal/metrics"
	"github.com/EdwardH92/CliffDive/internal/server"
	"github.com/EdwardH92/CliffDive/internal/storage"
	"github.com/EdwardH92/CliffDive/internal/storage/bolt"
	"github.com/EdwardH92/CliffDive/internal/storage/redis"
	"github.com/EdwardH92/CliffDive/internal/systemd"
	"github.com/EdwardH92/CliffDive/internal/tracker"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the CliffDive server",
	Long:  `Start the CliffDive server with the extension message endpoint and metrics endpoint.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting CliffDive")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to get systemd listeners")
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	clk := clock.RealClock{}

	// Initialize Session Tracker
	trackerOpts, err := tracker.OptionsFromConfig(cfg.Tracking)
	if err != nil {
		return fmt.Errorf("failed to parse tracking configuration: %w", err)
	}

	usageTracker := tracker.New(store.Usage(), clk, trackerOpts, logger)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	err = usageTracker.Initialize(initCtx)
	cancelInit()
	if err != nil {
		return fmt.Errorf("failed to initialize usage tracker: %w", err)
	}

	logger.Info().Msg("Session Tracker initialized")

	// Initialize Detector Manager, feeding classified interactions into
	// the tracker.
	sink := func(ctx context.Context, it event.Interaction) error {
		_, err := usageTracker.Record(ctx, it)
		return err
	}
	manager, err := detector.NewManager(cfg.Detector, clk, logger, sink)
	if err != nil {
		return fmt.Errorf("failed to initialize detector manager: %w", err)
	}

	logger.Info().Msg("Detector Manager initialized")

	// Background loops: session sweeps, retry flushes, monitor health.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go usageTracker.Run(runCtx)
	go manager.Run(runCtx)

	// Initialize Message Server
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.HTTPPort)
	messageServer := server.New(cfg.Server, httpAddr, usageTracker, manager, clk, logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Activated && sdListeners.HTTP != nil {
		messageServer.SetListener(sdListeners.HTTP)
	}

	if err := messageServer.Start(); err != nil {
		return fmt.Errorf("failed to start Message Server: %w", err)
	}

	logger.Info().
		Str("addr", httpAddr).
		Msg("Message Server started")

	// Initialize Metrics Server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	// Use systemd socket-activated listener if available
	if sdListeners.Activated && sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start Metrics Server: %w", err)
	}

	logger.Info().
		Str("addr", metricsAddr).
		Msg("Metrics Server started")

	// Log startup complete
	logger.Info().Msg("CliffDive startup complete")
	logger.Info().Msgf("Messages: http://%s/api/v1/message", httpAddr)
	logger.Info().Msgf("Analytics: http://%s/api/v1/analytics", httpAddr)
	logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	// Wait for signals (shutdown or flush)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// Signal handling loop
	for {
		sig := <-sigChan

		switch sig {
		case syscall.SIGHUP:
			logger.Info().Msg("SIGHUP received, flushing buffered interactions and sweeping sessions...")
			flushCtx, cancelFlush := context.WithTimeout(context.Background(), 10*time.Second)
			manager.Flush(flushCtx)
			usageTracker.Sweep(flushCtx)
			cancelFlush()
			// Continue running
			continue

		case os.Interrupt, syscall.SIGTERM:
			logger.Info().Msg("Shutdown signal received, gracefully stopping...")
			// Break out of loop to shutdown
		}

		// Only reached on shutdown signals
		break
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	shutdownTimeout := parseDuration(cfg.Server.ShutdownTimeout, 10*time.Second)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	// Stop background loops and the message server first so no new
	// interactions arrive while sessions are finalized.
	cancelRun()

	if err := messageServer.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error stopping Message Server")
	}

	manager.Flush(shutdownCtx)

	if err := usageTracker.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error finalizing sessions")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping Metrics Server")
	}

	logger.Info().Msg("CliffDive stopped")

	return nil
}

func openStorage(cfg *config.Config) (storage.Store, error) {
	storageType := cfg.Storage.Type
	if storageType == "" {
		storageType = "bolt"
	}

	switch storageType {
	case "bolt":
		return bolt.Open(cfg.Storage.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (supported: 'bolt', 'redis')", storageType)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
