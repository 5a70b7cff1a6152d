package mocks

import (
	"context"
	"sync"
)

// MockVectorCache is a mock implementation of VectorCache for testing
type MockVectorCache struct {
	mu      sync.Mutex
	vectors map[string][]float32
	getErr  error
}

// NewMockVectorCache creates a new MockVectorCache
func NewMockVectorCache() *MockVectorCache {
	return &MockVectorCache{vectors: make(map[string][]float32)}
}

func (m *MockVectorCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.vectors[model+"\x00"+text]
	return v, ok, nil
}

func (m *MockVectorCache) Set(ctx context.Context, model, text string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[model+"\x00"+text] = vector
	return nil
}

func (m *MockVectorCache) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

func (m *MockVectorCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}
