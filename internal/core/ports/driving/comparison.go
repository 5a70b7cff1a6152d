package driving

import (
	"context"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// CompareRequest asks for an asynchronous comparison of two texts.
type CompareRequest struct {
	Topic   string `json:"topic"`
	SourceA string `json:"sourceA,omitempty"`
	SourceB string `json:"sourceB,omitempty"`
	TextA   string `json:"textA"`
	TextB   string `json:"textB"`
}

// ComparisonService submits comparison jobs and reports their state
type ComparisonService interface {
	// Submit validates the request, creates a job and starts it in the background.
	// Returns domain.ErrMissingCredential before any job exists when a capability is missing.
	Submit(ctx context.Context, req CompareRequest) (string, error)

	// Poll returns the current job snapshot. Returns domain.ErrNotFound for unknown ids.
	Poll(ctx context.Context, jobID string) (*domain.Job, error)
}

// AssetService reads published knowledge assets
type AssetService interface {
	GetAsset(ctx context.Context, ual string) (domain.Asset, error)
}
