package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

// Services holds references to the configurable AI capabilities.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil)
	extractionService driven.ClaimExtractionService
	embeddingService  driven.EmbeddingService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// ExtractionService returns the current claim extraction service (may be nil)
func (s *Services) ExtractionService() driven.ClaimExtractionService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extractionService
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// Ready returns domain.ErrMissingCredential when a comparison cannot run.
// Always nil when the config does not require credentials.
func (s *Services) Ready() error {
	if !s.config.RequireCredential {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.extractionService == nil:
		return domain.ErrMissingCredential
	case s.embeddingService == nil:
		return domain.ErrMissingCredential
	}
	return nil
}

// SetExtractionService updates the extraction service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetExtractionService(svc driven.ClaimExtractionService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.extractionService != nil && s.extractionService != svc {
		_ = s.extractionService.Close()
	}

	s.extractionService = svc
	s.config.SetExtractionAvailable(svc != nil)
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.extractionService != nil {
		_ = s.extractionService.Close()
		s.extractionService = nil
	}
	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}

	s.config.SetExtractionAvailable(false)
	s.config.SetEmbeddingAvailable(false)

	return nil
}

// ValidateAndSetExtraction validates connectivity before setting the extraction service
func (s *Services) ValidateAndSetExtraction(ctx context.Context, svc driven.ClaimExtractionService) error {
	if svc == nil {
		s.SetExtractionService(nil)
		return nil
	}

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetExtractionService(svc)
	return nil
}

// ValidateAndSetEmbedding validates connectivity before setting the embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}
