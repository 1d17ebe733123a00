// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/metricscollector"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/ratelimiter"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/speechrecognizer"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/config"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/presentation/rest"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/presentation/rest/handlers"
)

func main() {
	// Setup context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.LoadEnvFile(os.Getenv("ENV_FILE"))

	// Load configuration
	cfg, err := config.LoadGatewayConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logger
	logger := setupLogger(cfg.GatewayConfig.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	// Initialize dependencies
	deps, err := initializeDependencies(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Cleanup()

	gateway, err := core.NewGatewayService(core.GatewayServiceConfig{
		Recognizer:       deps.Recognizer,
		MetricsCollector: deps.MetricsCollector,
		ContentType:      cfg.GatewayConfig.AudioContentType,
		Logger:           logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize gateway service: %v", err)
	}

	if err := gateway.CheckConfigured(); err != nil {
		logger.WarnContext(ctx, "Speech recognizer is not configured, transcriptions will fail",
			"recognizer", cfg.GatewayConfig.Recognizer,
		)
	}

	// Create and start HTTP server
	httpServer, err := rest.NewServer(rest.ServerConfig{
		Gateway:        gateway,
		Logger:         logger,
		Port:           fmt.Sprintf(":%d", cfg.ServerConfig.Port),
		ReadTimeout:    cfg.ServerConfig.ReadTimeout,
		WriteTimeout:   cfg.ServerConfig.WriteTimeout,
		Observer:       deps.Prometheus,
		MetricsHandler: promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		RateLimiter:    deps.RateLimiter,
		Stats:          deps.Stats,
		Version:        cfg.GatewayConfig.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize HTTP server: %v", err)
	}

	logger.InfoContext(ctx, "Starting voice-to-text gateway",
		"version", cfg.GatewayConfig.Version,
		"recognizer", cfg.GatewayConfig.Recognizer,
		"port", cfg.ServerConfig.Port,
	)

	// Start server (this blocks until shutdown)
	if err := httpServer.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "Server error", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Application shutdown completed")
}

// Dependencies holds all initialized dependencies
type Dependencies struct {
	Recognizer       core.SpeechRecognizer
	MetricsCollector core.MetricsCollector
	Prometheus       *metricscollector.PrometheusCollector
	Registry         *prometheus.Registry
	Stats            handlers.StatsProvider
	RateLimiter      core.RateLimiter

	closers []func()
}

// Cleanup cleans up all dependencies
func (d *Dependencies) Cleanup() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// setupLogger creates and configures the logger
func setupLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Use JSON handler
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	return logger
}

// initializeDependencies initializes all external dependencies
func initializeDependencies(cfg *config.GatewayConfigs, logger *slog.Logger) (*Dependencies, error) {
	gatewayCfg := cfg.GatewayConfig
	deps := &Dependencies{}

	// Initialize speech recognizer
	switch gatewayCfg.Recognizer {
	case config.RecognizerStatic:
		deps.Recognizer = speechrecognizer.NewStaticRecognizer(gatewayCfg.StaticTranscript)
	default:
		recognizer, err := speechrecognizer.NewDeepgramRecognizer(speechrecognizer.DeepgramConfig{
			BaseURL:  gatewayCfg.DeepgramBaseURL,
			APIKey:   gatewayCfg.DeepgramAPIKey,
			Model:    gatewayCfg.DeepgramModel,
			Language: gatewayCfg.DeepgramLanguage,
			Timeout:  gatewayCfg.DeepgramTimeout,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize speech recognizer: %w", err)
		}
		deps.Recognizer = recognizer
	}

	// Initialize prometheus metrics
	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promCollector, err := metricscollector.NewPrometheusCollector(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus collector: %w", err)
	}
	deps.Prometheus = promCollector
	sinks := metricscollector.Multi{promCollector}

	// Initialize metrics collector
	if dbPath := gatewayCfg.MetricsDBPath(); dbPath != "" {
		if err := os.MkdirAll(gatewayCfg.DataPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		sqliteCollector, err := metricscollector.NewSQLiteCollector(dbPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics collector: %w", err)
		}
		deps.closers = append(deps.closers, func() { sqliteCollector.Close() })
		deps.Stats = sqliteCollector
		sinks = append(sinks, sqliteCollector)
	}
	deps.MetricsCollector = sinks

	// Initialize rate limiter
	if gatewayCfg.RateLimitPerMinute > 0 {
		limiter := ratelimiter.NewRateLimiter(gatewayCfg.RateLimitPerMinute, logger)
		deps.closers = append(deps.closers, limiter.Close)
		deps.RateLimiter = limiter
	}

	return deps, nil
}
