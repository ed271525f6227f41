package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eric-edouard/life-recorder/internal/config"
	"github.com/eric-edouard/life-recorder/internal/ingest"
	"github.com/eric-edouard/life-recorder/internal/metrics"
	"github.com/eric-edouard/life-recorder/internal/server"
	"github.com/eric-edouard/life-recorder/internal/staging"
	"github.com/eric-edouard/life-recorder/internal/storage"
	"github.com/eric-edouard/life-recorder/internal/vad"
)

const (
	serviceName    = "audio-ingest"
	serviceVersion = "1.0.0"

	shutdownTimeout = 30 * time.Second
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional, environment variables override it)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (credentials are only reported as set or not)
	_, credentialsSet := os.LookupEnv(cfg.Storage.CredentialsEnv)
	logger.Info("Configuration loaded",
		slog.String("listen_address", cfg.HTTP.ListenAddress()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("bucket", cfg.Storage.Bucket),
		slog.Bool("credentials_set", credentialsSet),
		slog.String("staging_dir", cfg.Staging.Dir),
		slog.String("vad_engine", cfg.VAD.Engine),
		slog.String("vad_model_path", cfg.VAD.ModelPath),
		slog.Float64("vad_threshold", float64(cfg.VAD.Threshold)),
		slog.String("log_level", cfg.Logging.Level),
	)

	if cfg.Storage.Bucket == "" {
		logger.Warn("No bucket configured, every upload will fail until it is set",
			slog.String("env", config.EnvBucketName),
		)
	}

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Staging directory and orphan sweep
	stager, err := staging.NewManager(cfg.Staging.Dir, logger, appMetrics)
	if err != nil {
		logger.Error("Failed to create staging manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var swept staging.CleanStaleResult
	if cfg.Staging.StaleAfter > 0 {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), time.Minute)
		swept = stager.CleanStale(sweepCtx, cfg.Staging.GetStaleAfterDuration())
		sweepCancel()
	}
	logger.Info("Staging directory ready",
		slog.String("dir", stager.Dir()),
		slog.Int("stale_removed", len(swept.Removed)),
		slog.Int("stale_errors", len(swept.Errors)),
	)

	// Voice activity detector; a load failure degrades to no-voice verdicts
	detector, err := vad.NewDetector(vad.DetectorConfig{
		Engine:      cfg.VAD.Engine,
		ModelPath:   cfg.VAD.ModelPath,
		OnnxLibPath: cfg.VAD.OnnxRuntimePath,
		WindowSize:  cfg.VAD.WindowSize,
	})
	if err != nil {
		logger.Warn("Failed to load VAD model, all clips will be classified as no voice",
			slog.String("engine", cfg.VAD.Engine),
			slog.String("model_path", cfg.VAD.ModelPath),
			slog.String("error", err.Error()),
		)
		detector = nil
	}
	if detector != nil {
		defer detector.Close()
	}

	gate := vad.NewGate(detector, vad.GateConfig{
		Threshold:          cfg.VAD.Threshold,
		MinSpeechDuration:  cfg.VAD.GetMinSpeechDuration(),
		MinSilenceDuration: cfg.VAD.GetMinSilenceDuration(),
	}, logger, appMetrics)
	logger.Info("Voice activity gate initialized",
		slog.String("engine", cfg.VAD.Engine),
		slog.Bool("model_loaded", gate.Available()),
	)

	uploader, err := newUploader(cfg.Storage, logger)
	if err != nil {
		logger.Error("Failed to create uploader", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pipeline := ingest.NewPipeline(stager, gate, uploader, cfg.Storage.Bucket, logger, appMetrics)

	httpServer := server.NewHTTPServer(cfg.HTTP, logger, pipeline, appMetrics, prometheus.DefaultGatherer)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	// In-flight requests finish their upload and cleanup before Shutdown returns
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

// newUploader creates the blob store client for the configured backend
func newUploader(cfg config.StorageConfig, logger *slog.Logger) (storage.Uploader, error) {
	switch cfg.Backend {
	case config.BackendGCS:
		return storage.NewGCSUploader(cfg.CredentialsEnv, logger), nil
	case config.BackendS3:
		u, err := storage.NewS3Uploader(cfg.Region, logger)
		if err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
