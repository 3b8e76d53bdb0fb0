package resilience

import (
	"context"
	"time"
)

// WithTimeout bounds each call to next with a deadline. The wrapped Func
// must honor context cancellation for the call to actually be abandoned.
func WithTimeout(next Func, d time.Duration) Func {
	if d <= 0 {
		return next
	}
	return func(ctx context.Context, trackID string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx, trackID)
	}
}
