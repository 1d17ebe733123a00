package ratelimiter_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/ratelimiter"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

func getTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // blocked requests log at warn
	}))
}

func TestRateLimiter_IsAllowed_WithinLimit(t *testing.T) {
	rl := ratelimiter.NewRateLimiter(10, getTestLogger()) // burst of 5
	defer rl.Close()

	ctx := context.Background()
	client := "10.0.0.1"

	for i := 0; i < 5; i++ {
		allowed := rl.IsAllowed(ctx, client)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
		require.NoError(t, rl.RecordRequest(ctx, client))
	}

	assert.False(t, rl.IsAllowed(ctx, client), "Request 6 should be blocked")
}

func TestRateLimiter_RecordRequest_ExceedsLimit(t *testing.T) {
	rl := ratelimiter.NewRateLimiter(4, getTestLogger()) // burst of 2
	defer rl.Close()

	ctx := context.Background()

	require.NoError(t, rl.RecordRequest(ctx, "a"))
	require.NoError(t, rl.RecordRequest(ctx, "a"))

	err := rl.RecordRequest(ctx, "a")
	assert.ErrorIs(t, err, core.ErrRateLimitExceeded)
	assert.Equal(t, 0, rl.GetRemainingRequests(ctx, "a"))
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := ratelimiter.NewRateLimiter(2, getTestLogger()) // burst of 1
	defer rl.Close()

	ctx := context.Background()

	require.NoError(t, rl.RecordRequest(ctx, "a"))
	assert.False(t, rl.IsAllowed(ctx, "a"))

	assert.True(t, rl.IsAllowed(ctx, "b"))
	assert.Equal(t, 1, rl.GetRemainingRequests(ctx, "b"))
}

func TestRateLimiter_BurstSizeCalculation(t *testing.T) {
	testCases := []struct {
		requestsPerMinute int
		expectedBurst     int
	}{
		{requestsPerMinute: 1, expectedBurst: 1},
		{requestsPerMinute: 2, expectedBurst: 1},
		{requestsPerMinute: 10, expectedBurst: 5},
		{requestsPerMinute: 60, expectedBurst: 30},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("rpm_%d", tc.requestsPerMinute), func(t *testing.T) {
			rl := ratelimiter.NewRateLimiter(tc.requestsPerMinute, getTestLogger())
			defer rl.Close()

			assert.Equal(t, tc.expectedBurst, rl.GetRemainingRequests(context.Background(), "client"))
		})
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := ratelimiter.NewRateLimiter(20, getTestLogger()) // burst of 10
	defer rl.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.RecordRequest(ctx, "shared") == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
}

func TestRateLimiter_Close(t *testing.T) {
	rl := ratelimiter.NewRateLimiter(10, getTestLogger())

	rl.Close()
	// closing twice is fine
	rl.Close()
}
