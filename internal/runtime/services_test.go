package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// mockEmbeddingService is a mock implementation for testing
type mockEmbeddingService struct {
	healthCheckErr error
	closed         bool
}

func (m *mockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return 384
}

func (m *mockEmbeddingService) Model() string {
	return "test-model"
}

func (m *mockEmbeddingService) HealthCheck(ctx context.Context) error {
	return m.healthCheckErr
}

func (m *mockEmbeddingService) Close() error {
	m.closed = true
	return nil
}

// mockExtractionService is a mock implementation for testing
type mockExtractionService struct {
	pingErr error
	closed  bool
}

func (m *mockExtractionService) ExtractClaims(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
	return nil, nil
}

func (m *mockExtractionService) Model() string {
	return "test-extractor"
}

func (m *mockExtractionService) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockExtractionService) Close() error {
	m.closed = true
	return nil
}

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to be returned")
	}
	if services.ExtractionService() != nil || services.EmbeddingService() != nil {
		t.Error("expected no services initially")
	}
}

func TestServices_Ready(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	services := NewServices(config)

	if err := services.Ready(); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	services.SetExtractionService(&mockExtractionService{})
	if err := services.Ready(); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential without embedding, got %v", err)
	}

	services.SetEmbeddingService(&mockEmbeddingService{})
	if err := services.Ready(); err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
	if !config.CanCompare() {
		t.Error("expected config flags to follow services")
	}
}

func TestServices_ReadyWithoutCredentialRequirement(t *testing.T) {
	config := domain.NewRuntimeConfig("memory")
	config.RequireCredential = false
	services := NewServices(config)

	if err := services.Ready(); err != nil {
		t.Errorf("expected nil when credentials are not required, got %v", err)
	}
}

func TestServices_SetClosesPrevious(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("memory"))

	first := &mockEmbeddingService{}
	second := &mockEmbeddingService{}
	services.SetEmbeddingService(first)
	services.SetEmbeddingService(second)

	if !first.closed {
		t.Error("expected previous embedding service to be closed")
	}
	if second.closed {
		t.Error("expected current embedding service to stay open")
	}

	oldExtractor := &mockExtractionService{}
	services.SetExtractionService(oldExtractor)
	services.SetExtractionService(nil)
	if !oldExtractor.closed {
		t.Error("expected extraction service to be closed")
	}
	if services.Config().ExtractionAvailable() {
		t.Error("expected extraction flag cleared")
	}
}

func TestServices_Close(t *testing.T) {
	services := NewServices(domain.NewRuntimeConfig("memory"))
	embedder := &mockEmbeddingService{}
	extractor := &mockExtractionService{}
	services.SetEmbeddingService(embedder)
	services.SetExtractionService(extractor)

	if err := services.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !embedder.closed || !extractor.closed {
		t.Error("expected all services closed")
	}
	if services.Config().CanCompare() {
		t.Error("expected capabilities cleared")
	}
}

func TestServices_ValidateAndSet(t *testing.T) {
	ctx := context.Background()
	services := NewServices(domain.NewRuntimeConfig("memory"))

	bad := &mockEmbeddingService{healthCheckErr: errors.New("connection refused")}
	if err := services.ValidateAndSetEmbedding(ctx, bad); err == nil {
		t.Fatal("expected health check error")
	}
	if !bad.closed {
		t.Error("expected failing service to be closed")
	}
	if services.EmbeddingService() != nil {
		t.Error("failing service must not be installed")
	}

	badExtractor := &mockExtractionService{pingErr: errors.New("401")}
	if err := services.ValidateAndSetExtraction(ctx, badExtractor); err == nil {
		t.Fatal("expected ping error")
	}

	good := &mockExtractionService{}
	if err := services.ValidateAndSetExtraction(ctx, good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if services.ExtractionService() != good {
		t.Error("expected extractor to be installed")
	}

	if err := services.ValidateAndSetEmbedding(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
