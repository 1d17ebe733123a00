package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

const statsWindow = 24 * time.Hour

// StatsProvider reports aggregated transcription metrics
type StatsProvider interface {
	GetTranscriptionStats(ctx context.Context, since time.Time) (*core.TranscriptionStats, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	gateway   core.Gateway
	stats     StatsProvider
	logger    *slog.Logger
	startTime time.Time
	version   string
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status               string                   `json:"status"`
	Timestamp            time.Time                `json:"timestamp"`
	Version              string                   `json:"version"`
	Uptime               string                   `json:"uptime"`
	RecognizerConfigured bool                     `json:"recognizer_configured"`
	System               SystemInfo               `json:"system"`
	Transcriptions       *core.TranscriptionStats `json:"transcriptions_24h,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemoryMB     uint64 `json:"memory_mb"`
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(gateway core.Gateway, stats StatsProvider, logger *slog.Logger, version string) *HealthHandler {
	return &HealthHandler{
		gateway:   gateway,
		stats:     stats,
		logger:    logger,
		startTime: time.Now(),
		version:   version,
	}
}

// Handle reports "degraded" while no recognizer credential is configured
func (h *HealthHandler) Handle(c *gin.Context) {
	configured := h.gateway.CheckConfigured() == nil

	status := "healthy"
	if !configured {
		status = "degraded"
	}

	response := HealthResponse{
		Status:               status,
		Timestamp:            time.Now(),
		Version:              h.version,
		Uptime:               time.Since(h.startTime).String(),
		RecognizerConfigured: configured,
		System:               h.getSystemInfo(),
	}

	if h.stats != nil {
		stats, err := h.stats.GetTranscriptionStats(c, time.Now().Add(-statsWindow))
		if err != nil {
			h.logger.WarnContext(c, "Failed to load transcription stats", "error", err.Error())
		} else {
			response.Transcriptions = stats
		}
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(http.StatusOK, response)
}

// getSystemInfo collects system information
func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemoryMB:     memStats.Alloc / 1024 / 1024,
	}
}
