package ai

import (
	"fmt"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateExtractionService creates a claim extraction service from settings.
// Remote providers are wrapped in a rate limiter when RequestsPerSecond is set.
func (f *Factory) CreateExtractionService(settings *domain.ExtractionSettings) (driven.ClaimExtractionService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	cfg := OpenAIClaimsConfig{
		APIKey:  settings.APIKey,
		Model:   settings.Model,
		BaseURL: settings.BaseURL,
		Timeout: settings.Timeout,
	}

	var (
		svc *OpenAIClaims
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err = NewOpenAIClaims(cfg)
	case domain.AIProviderOllama:
		svc, err = NewOllamaClaims(cfg)
	case domain.AIProviderLocal:
		return NewHeuristicClaims(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewRateLimitedClaims(svc, settings.RequestsPerSecond, settings.Burst), nil
}

// CreateEmbeddingService creates an embedding service from settings
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	cfg := OpenAIEmbeddingConfig{
		APIKey:     settings.APIKey,
		Model:      settings.Model,
		BaseURL:    settings.BaseURL,
		Dimensions: settings.Dimensions,
		Timeout:    settings.Timeout,
	}

	var (
		svc *OpenAIEmbedding
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err = NewOpenAIEmbedding(cfg)
	case domain.AIProviderOllama:
		svc, err = NewOllamaEmbedding(cfg)
	case domain.AIProviderLocal:
		return NewHashEmbedding(settings.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
