package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// MockAssetGenerator returns one small document per asset slot.
type MockAssetGenerator struct {
	Err error

	// GenerateFunc replaces the default behaviour when set
	GenerateFunc func(ctx context.Context, jobID string, result *domain.JobResult) (*domain.KnowledgeAssets, error)
}

func (m *MockAssetGenerator) Generate(ctx context.Context, jobID string, result *domain.JobResult) (*domain.KnowledgeAssets, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, jobID, result)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.KnowledgeAssets{
		SourceA: domain.Asset{"@id": "urn:test:" + jobID + ":a", "claims": len(result.ClaimsA)},
		SourceB: domain.Asset{"@id": "urn:test:" + jobID + ":b", "claims": len(result.ClaimsB)},
		Note:    domain.Asset{"@id": "urn:test:" + jobID + ":note", "discrepancies": len(result.Discrepancies)},
	}, nil
}

// MockAssetPublisher is a mock implementation of AssetPublisher for testing
type MockAssetPublisher struct {
	mu      sync.Mutex
	assets  map[string]domain.Asset
	failIDs map[string]bool
	seq     int

	// FailWhen makes Publish fail for matching assets when set
	FailWhen func(asset domain.Asset) bool
}

// NewMockAssetPublisher creates a new MockAssetPublisher
func NewMockAssetPublisher() *MockAssetPublisher {
	return &MockAssetPublisher{
		assets:  make(map[string]domain.Asset),
		failIDs: make(map[string]bool),
	}
}

func (m *MockAssetPublisher) Publish(ctx context.Context, asset domain.Asset) (*domain.PublishedAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, _ := asset["@id"].(string)
	if m.failIDs[id] || (m.FailWhen != nil && m.FailWhen(asset)) {
		return nil, fmt.Errorf("publish %s: %w", id, domain.ErrServiceUnavailable)
	}
	m.seq++
	ual := fmt.Sprintf("did:dkg:mock/%d", m.seq)
	m.assets[ual] = asset
	return &domain.PublishedAsset{UAL: ual, AssetID: fmt.Sprint(m.seq)}, nil
}

func (m *MockAssetPublisher) Get(ctx context.Context, ual string) (domain.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[ual]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return asset, nil
}

// FailFor makes publishing the asset with this @id fail.
func (m *MockAssetPublisher) FailFor(assetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failIDs[assetID] = true
}
