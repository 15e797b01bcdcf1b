// Package throttle wraps a language model with a process-local request rate limit.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

type limitedModel struct {
	next    ports.LanguageModel
	limiter *rate.Limiter
}

// Middleware returns a decorator that admits at most perMinute calls per
// minute with a burst of burst. perMinute <= 0 returns next unchanged.
func Middleware(perMinute float64, burst int) func(ports.LanguageModel) ports.LanguageModel {
	return func(next ports.LanguageModel) ports.LanguageModel {
		if next == nil || perMinute <= 0 {
			return next
		}
		if burst <= 0 {
			burst = 1
		}
		return &limitedModel{
			next:    next,
			limiter: rate.NewLimiter(rate.Limit(perMinute/60.0), burst),
		}
	}
}

// Complete waits for capacity and delegates. The wait is bounded by ctx.
func (m *limitedModel) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("throttle: %w", err)
	}
	return m.next.Complete(ctx, req)
}
