package driven

import (
	"context"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// ClaimExtractionService turns a chunk of text into atomic claims.
// Implementations return domain.ErrMalformedOutput when the model
// does not answer with a claim array.
type ClaimExtractionService interface {
	// ExtractClaims returns the raw claims found in text about topic
	ExtractClaims(ctx context.Context, text, topic string) ([]domain.RawClaim, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the service is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the service
	Close() error
}

// ContradictionChecker inspects a reworded pair of claims.
// It returns nil when the pair agrees.
type ContradictionChecker interface {
	Check(ctx context.Context, a, b domain.Claim) (*domain.Discrepancy, error)
}
