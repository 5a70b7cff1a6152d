package ai

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var _ driven.ClaimExtractionService = (*RateLimitedClaims)(nil)

// RateLimitedClaims throttles calls to a wrapped extraction service.
// Extraction fans out per chunk, so one comparison can issue many calls at once.
type RateLimitedClaims struct {
	next    driven.ClaimExtractionService
	limiter *rate.Limiter
}

// NewRateLimitedClaims wraps next with a token bucket.
// A non-positive rate returns next unchanged.
func NewRateLimitedClaims(next driven.ClaimExtractionService, requestsPerSecond float64, burst int) driven.ClaimExtractionService {
	if requestsPerSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedClaims{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// ExtractClaims waits for a token before delegating
func (r *RateLimitedClaims) ExtractClaims(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.ExtractClaims(ctx, text, topic)
}

// Check forwards to the wrapped service when it can judge contradictions
func (r *RateLimitedClaims) Check(ctx context.Context, a, b domain.Claim) (*domain.Discrepancy, error) {
	checker, ok := r.next.(driven.ContradictionChecker)
	if !ok {
		return nil, nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return checker.Check(ctx, a, b)
}

func (r *RateLimitedClaims) Model() string                  { return r.next.Model() }
func (r *RateLimitedClaims) Ping(ctx context.Context) error { return r.next.Ping(ctx) }
func (r *RateLimitedClaims) Close() error                   { return r.next.Close() }
