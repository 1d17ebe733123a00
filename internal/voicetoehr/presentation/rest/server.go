package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/validator.v2"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/presentation/rest/handlers"
)

const (
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	shutdownTimeout     = 10 * time.Second
)

type Server struct {
	gateway      core.Gateway
	logger       *slog.Logger
	port         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	observer       HTTPObserver
	metricsHandler http.Handler
	rateLimiter    core.RateLimiter
	stats          handlers.StatsProvider
	version        string

	router *gin.Engine
}

type ServerConfig struct {
	Gateway      core.Gateway  `validate:"nonnil"`
	Logger       *slog.Logger  `validate:"nonnil"`
	Port         string        `validate:"nonzero"`
	ReadTimeout  time.Duration `validate:"nonzero"`
	WriteTimeout time.Duration `validate:"nonzero"`

	// Optional
	Observer       HTTPObserver           `validate:"-"`
	MetricsHandler http.Handler           `validate:"-"`
	RateLimiter    core.RateLimiter       `validate:"-"`
	Stats          handlers.StatsProvider `validate:"-"`
	Version        string
}

func NewServer(config ServerConfig) (*Server, error) {
	if err := validator.Validate(config); err != nil {
		return nil, err
	}

	s := &Server{
		gateway:        config.Gateway,
		logger:         config.Logger,
		port:           config.Port,
		readTimeout:    config.ReadTimeout,
		writeTimeout:   config.WriteTimeout,
		observer:       config.Observer,
		metricsHandler: config.MetricsHandler,
		rateLimiter:    config.RateLimiter,
		stats:          config.Stats,
		version:        config.Version,
		router:         gin.New(),
	}
	s.setup()

	return s, nil
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.port,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	go func() {
		<-ctx.Done()
		s.logger.Warn("receive shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down server", "error", err.Error())
			server.Close()
		}
	}()

	s.logger.Info("HTTP server listening", "addr", s.port)

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn("server closed under request")
		return nil
	}
	return fmt.Errorf("failed to start server: %w", err)
}

func (s *Server) setup() {
	s.router.Use(Recovery(s.logger), RequestID(), Logging(s.logger))
	if s.observer != nil {
		s.router.Use(Metrics(s.observer))
	}

	s.router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, handlers.NewSuccessResponse("It's running!"))
	})

	health := handlers.NewHealthHandler(s.gateway, s.stats, s.logger, s.version)
	s.router.GET("/health", health.Handle)

	if s.metricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	api := s.router.Group("/api")
	if s.rateLimiter != nil {
		api.Use(RateLimit(s.rateLimiter, s.logger))
	}

	voiceToText := handlers.NewVoiceToTextHandler(s.gateway, s.logger)
	api.POST("/voice-to-text", voiceToText.Handle)
}
