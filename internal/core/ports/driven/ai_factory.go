package driven

import (
	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// AIServiceFactory creates AI services based on configuration
type AIServiceFactory interface {
	// CreateExtractionService creates a claim extraction service from settings
	// Returns nil, nil if settings are not configured
	CreateExtractionService(settings *domain.ExtractionSettings) (ClaimExtractionService, error)

	// CreateEmbeddingService creates an embedding service from settings
	// Returns nil, nil if settings are not configured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)
}
