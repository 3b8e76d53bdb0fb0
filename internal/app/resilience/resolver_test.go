package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestResolver_PassesThroughOnSuccess(t *testing.T) {
	r := NewResolver(okFunc, Config{MaxAttempts: 2, RetryDelay: time.Millisecond})

	url, fallback := r.Resolve(context.Background(), "t42")
	assert.False(t, fallback)
	assert.Equal(t, "https://cdn.example/high-bitrate/t42", url)
}

func TestResolver_FallsBackWhenUpstreamAlwaysFails(t *testing.T) {
	r := NewResolver(failingFunc, Config{MaxAttempts: 2, RetryDelay: time.Millisecond})

	url, fallback := r.Resolve(context.Background(), "t42")
	assert.True(t, fallback)
	assert.Equal(t, DefaultFallbackPrefix+"t42", url)
}

func TestResolver_CustomFallbackPrefix(t *testing.T) {
	r := NewResolver(failingFunc, Config{
		MaxAttempts:    1,
		RetryDelay:     time.Millisecond,
		FallbackPrefix: "https://backup.example/stream/",
	})

	url, fallback := r.Resolve(context.Background(), "t7")
	assert.True(t, fallback)
	assert.Equal(t, "https://backup.example/stream/t7", url)
}

func TestResolver_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	upstream := func(ctx context.Context, trackID string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("blip")
		}
		return "https://cdn.example/high-bitrate/" + trackID, nil
	}
	r := NewResolver(upstream, Config{MaxAttempts: 3, RetryDelay: time.Millisecond})

	url, fallback := r.Resolve(context.Background(), "t1")
	assert.False(t, fallback)
	assert.Equal(t, "https://cdn.example/high-bitrate/t1", url)
	assert.Equal(t, 2, calls)
}

func TestResolver_BreakerOpensUnderSustainedFailure(t *testing.T) {
	calls := 0
	upstream := func(ctx context.Context, trackID string) (string, error) {
		calls++
		return "", errUpstream
	}
	r := NewResolver(upstream, Config{
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
		Breaker: BreakerConfig{
			WindowSize:       4,
			FailureThreshold: 50,
			MinimumCalls:     2,
			OpenDuration:     time.Hour,
		},
	})

	// First resolution trips the breaker after two failed attempts.
	_, fallback := r.Resolve(context.Background(), "t1")
	assert.True(t, fallback)
	assert.Equal(t, StateOpen, r.BreakerState())

	// Subsequent resolutions are rejected without reaching upstream.
	callsBefore := calls
	url, fallback := r.Resolve(context.Background(), "t2")
	assert.True(t, fallback)
	assert.Equal(t, DefaultFallbackPrefix+"t2", url)
	assert.Equal(t, callsBefore, calls)
}
