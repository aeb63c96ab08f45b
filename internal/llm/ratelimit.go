package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a token-bucket rate limit, so a burst of
// concurrent verifications cannot exhaust the judge's quota.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps provider with the given requests-per-second budget.
func NewRateLimited(provider Provider, requestsPerSecond float64, burst int) *RateLimited {
	if burst <= 0 {
		burst = 5
	}
	return &RateLimited{
		inner:   provider,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Name returns the wrapped provider's name
func (p *RateLimited) Name() string {
	return p.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (p *RateLimited) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Complete waits for rate-limit clearance, then delegates. A cancelled
// context aborts the wait and surfaces as a provider error.
func (p *RateLimited) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.inner.Complete(ctx, req)
}
