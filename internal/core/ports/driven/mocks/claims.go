package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// MockClaimExtractionService is a mock implementation of ClaimExtractionService.
// By default every sentence of a chunk becomes one claim.
type MockClaimExtractionService struct {
	mu        sync.Mutex
	responses map[string][]domain.RawClaim
	errors    map[string]error
	pingErr   error
	calls     []string
	closed    bool

	// ExtractFunc overrides all other behavior when set
	ExtractFunc func(ctx context.Context, text, topic string) ([]domain.RawClaim, error)
}

// NewMockClaimExtractionService creates a new MockClaimExtractionService
func NewMockClaimExtractionService() *MockClaimExtractionService {
	return &MockClaimExtractionService{
		responses: make(map[string][]domain.RawClaim),
		errors:    make(map[string]error),
	}
}

func (m *MockClaimExtractionService) ExtractClaims(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	fn := m.ExtractFunc
	resp, hasResp := m.responses[text]
	err := m.errors[text]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, topic)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if hasResp {
		return resp, nil
	}
	return sentenceClaims(text), nil
}

func (m *MockClaimExtractionService) Model() string {
	return "mock-extractor"
}

func (m *MockClaimExtractionService) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *MockClaimExtractionService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Helper methods for testing

// SetResponse fixes the claims returned for an exact chunk.
func (m *MockClaimExtractionService) SetResponse(chunk string, claims []domain.RawClaim) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[chunk] = claims
}

// SetError makes extraction of an exact chunk fail.
func (m *MockClaimExtractionService) SetError(chunk string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[chunk] = err
}

func (m *MockClaimExtractionService) SetPingError(err error) {
	m.pingErr = err
}

// Calls returns the chunks seen so far.
func (m *MockClaimExtractionService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func sentenceClaims(text string) []domain.RawClaim {
	var out []domain.RawClaim
	for _, s := range strings.SplitAfter(text, ".") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		words := strings.Fields(s)
		subject := words[0]
		out = append(out, domain.RawClaim{
			Subject:   subject,
			Predicate: "states",
			Object:    strings.TrimSuffix(strings.Join(words[1:], " "), "."),
			RawText:   s,
		})
	}
	return out
}
