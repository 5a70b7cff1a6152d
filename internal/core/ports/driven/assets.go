package driven

import (
	"context"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// AssetGenerator builds JSON-LD knowledge assets for a finished comparison
type AssetGenerator interface {
	Generate(ctx context.Context, jobID string, result *domain.JobResult) (*domain.KnowledgeAssets, error)
}

// AssetPublisher publishes assets to a knowledge graph and reads them back
type AssetPublisher interface {
	// Publish stores the asset and returns its reference
	Publish(ctx context.Context, asset domain.Asset) (*domain.PublishedAsset, error)

	// Get returns a published asset. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, ual string) (domain.Asset, error)
}
