package rest

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/presentation/rest/handlers"
)

const requestIDHeader = "X-Request-ID"

// HTTPObserver records served requests
type HTTPObserver interface {
	ObserveHTTPRequest(method, pathPattern string, statusCode int, duration time.Duration)
}

// RequestID tags every request with a fresh uuid
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set(handlers.RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// Logging logs HTTP requests
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.InfoContext(c, "HTTP request processed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"remote_addr", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"request_id", c.GetString(handlers.RequestIDKey),
			"content_length", c.Request.ContentLength,
		)
	}
}

// Recovery recovers from panics
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c, "Panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(handlers.RequestIDKey),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					handlers.NewErrorResponse(core.MessageProcessingFailed))
			}
		}()

		c.Next()
	}
}

// Metrics reports each request under its route template
func Metrics(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		observer.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// RateLimit rejects clients that exceed their token bucket
// remainingReporter is implemented by limiters that can report the
// requests left to a client
type remainingReporter interface {
	GetRemainingRequests(ctx context.Context, clientKey string) int
}

func RateLimit(limiter core.RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	reporter, _ := limiter.(remainingReporter)

	return func(c *gin.Context) {
		clientKey := c.ClientIP()

		if !limiter.IsAllowed(c, clientKey) {
			rejectRateLimited(c, logger, clientKey)
			return
		}

		if err := limiter.RecordRequest(c, clientKey); err != nil {
			rejectRateLimited(c, logger, clientKey)
			return
		}

		if reporter != nil {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(reporter.GetRemainingRequests(c, clientKey)))
		}

		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, logger *slog.Logger, clientKey string) {
	logger.WarnContext(c, "Rate limit exceeded",
		"client", clientKey,
		"request_id", c.GetString(handlers.RequestIDKey),
	)

	c.Header("Retry-After", "60")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, handlers.NewErrorResponse(core.MessageRateLimitExceeded))
}
