package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// RateLimiter implements token bucket rate limiting per client key
type RateLimiter struct {
	buckets map[string]*tokenBucket
	mutex   sync.Mutex
	logger  *slog.Logger
	config  RateLimitConfig

	stopCh    chan struct{}
	closeOnce sync.Once
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           // Tokens added per minute
	BurstSize         int           // Maximum burst requests allowed
	CleanupInterval   time.Duration // How often idle buckets are dropped
	IdleTimeout       time.Duration // Buckets unused for this long are dropped
}

type tokenBucket struct {
	tokens       int
	lastRefill   time.Time
	lastAccess   time.Time
	requestCount int
	blockedCount int
}

// NewRateLimiter creates a limiter allowing requestsPerMinute per client
// with a burst of half that rate
func NewRateLimiter(requestsPerMinute int, logger *slog.Logger) *RateLimiter {
	config := RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		BurstSize:         requestsPerMinute / 2,
		CleanupInterval:   5 * time.Minute,
		IdleTimeout:       time.Hour,
	}

	if config.BurstSize < 1 {
		config.BurstSize = 1
	}

	rl := &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		logger:  logger,
		config:  config,
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupRoutine()

	logger.InfoContext(context.Background(), "Rate limiter initialized",
		"requests_per_minute", requestsPerMinute,
		"burst_size", config.BurstSize,
	)

	return rl
}

// IsAllowed checks if a request from clientKey is within the limit without consuming a token
func (rl *RateLimiter) IsAllowed(ctx context.Context, clientKey string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	bucket := rl.getBucket(clientKey)
	rl.refillBucket(bucket)

	allowed := bucket.tokens > 0

	rl.logger.DebugContext(ctx, "Rate limit check",
		"client", clientKey,
		"tokens_available", bucket.tokens,
		"allowed", allowed,
	)

	if !allowed {
		bucket.blockedCount++
		rl.logger.WarnContext(ctx, "Rate limit exceeded",
			"client", clientKey,
			"blocked_count", bucket.blockedCount,
		)
	}

	return allowed
}

// RecordRequest consumes a token for clientKey
func (rl *RateLimiter) RecordRequest(ctx context.Context, clientKey string) error {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	bucket := rl.getBucket(clientKey)
	rl.refillBucket(bucket)

	bucket.lastAccess = time.Now()

	if bucket.tokens <= 0 {
		bucket.blockedCount++
		return core.ErrRateLimitExceeded
	}

	bucket.tokens--
	bucket.requestCount++

	rl.logger.DebugContext(ctx, "Request recorded",
		"client", clientKey,
		"tokens_remaining", bucket.tokens,
		"total_requests", bucket.requestCount,
	)

	return nil
}

// GetRemainingRequests returns the tokens currently available to clientKey
func (rl *RateLimiter) GetRemainingRequests(ctx context.Context, clientKey string) int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	bucket := rl.getBucket(clientKey)
	rl.refillBucket(bucket)
	return bucket.tokens
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) getBucket(clientKey string) *tokenBucket {
	bucket, exists := rl.buckets[clientKey]
	if !exists {
		now := time.Now()
		bucket = &tokenBucket{
			tokens:     rl.config.BurstSize,
			lastRefill: now,
			lastAccess: now,
		}
		rl.buckets[clientKey] = bucket
	}
	return bucket
}

// refillBucket refills tokens in the bucket based on elapsed time
func (rl *RateLimiter) refillBucket(bucket *tokenBucket) {
	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill)

	tokensToAdd := int(float64(rl.config.RequestsPerMinute) * elapsed.Minutes())

	if tokensToAdd > 0 {
		bucket.tokens = min(bucket.tokens+tokensToAdd, rl.config.BurstSize)
		bucket.lastRefill = now
	}
}

func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := time.Now().Add(-rl.config.IdleTimeout)
	for clientKey, bucket := range rl.buckets {
		if bucket.lastAccess.Before(cutoff) {
			delete(rl.buckets, clientKey)
		}
	}
}
