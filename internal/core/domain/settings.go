package domain

import (
	"fmt"
	"time"
)

// AIProvider identifies the extraction/embedding provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama"
	// AIProviderLocal selects the offline heuristic extractor and hashed embedder.
	AIProviderLocal AIProvider = "local"
)

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama, AIProviderLocal:
		return false
	default:
		return true
	}
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama, AIProviderLocal:
		return true
	default:
		return false
	}
}

// AISettings holds the capability configuration for a deployment
type AISettings struct {
	Extraction ExtractionSettings `json:"extraction"`
	Embedding  EmbeddingSettings  `json:"embedding"`
}

// Validate checks if AISettings are valid
func (s *AISettings) Validate() error {
	if s.Extraction.Provider != "" && !s.Extraction.Provider.IsValid() {
		return ErrInvalidProvider
	}
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return ErrInvalidProvider
	}
	return nil
}

// ExtractionSettings configures the claim extraction service
type ExtractionSettings struct {
	Provider AIProvider    `json:"provider"`
	Model    string        `json:"model"`
	APIKey   string        `json:"-"` // Never serialize to JSON
	BaseURL  string        `json:"base_url,omitempty"`
	Timeout  time.Duration `json:"timeout"`

	// RequestsPerSecond limits outbound extraction calls; 0 disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

// IsConfigured returns true if extraction settings are properly configured
func (e *ExtractionSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider    `json:"provider"`
	Model      string        `json:"model"`
	APIKey     string        `json:"-"` // Never serialize to JSON
	BaseURL    string        `json:"base_url,omitempty"`
	Dimensions int           `json:"dimensions,omitempty"`
	Timeout    time.Duration `json:"timeout"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkSettings bounds how documents are split before extraction
type ChunkSettings struct {
	TargetLength int `json:"target_length"`
	MaxChunks    int `json:"max_chunks"`
}

// DefaultChunkSettings returns the packing used for claim extraction
func DefaultChunkSettings() ChunkSettings {
	return ChunkSettings{
		TargetLength: 2000,
		MaxChunks:    8,
	}
}

// MatchPolicy holds the similarity thresholds of the semantic matcher.
type MatchPolicy struct {
	// SameFact is the similarity at or above which two claims state the same fact.
	SameFact float64 `json:"same_fact"`
	// Reworded is the lower bound of the reworded band [Reworded, SameFact).
	Reworded float64 `json:"reworded"`
	// Unsupported is the bound under which an unmatched B claim is reported.
	Unsupported float64 `json:"unsupported"`
	// MaxDiscrepancies caps the reported list.
	MaxDiscrepancies int `json:"max_discrepancies"`
}

// DefaultMatchPolicy returns the calibrated thresholds
func DefaultMatchPolicy() MatchPolicy {
	return MatchPolicy{
		SameFact:         0.88,
		Reworded:         0.78,
		Unsupported:      0.75,
		MaxDiscrepancies: 15,
	}
}

// Validate checks threshold ordering and ranges
func (p MatchPolicy) Validate() error {
	for name, v := range map[string]float64{
		"same_fact":   p.SameFact,
		"reworded":    p.Reworded,
		"unsupported": p.Unsupported,
	} {
		if v < -1 || v > 1 {
			return fmt.Errorf("%w: %s threshold %.2f out of range", ErrInvalidInput, name, v)
		}
	}
	if p.Reworded > p.SameFact {
		return fmt.Errorf("%w: reworded threshold above same-fact threshold", ErrInvalidInput)
	}
	if p.MaxDiscrepancies <= 0 {
		return fmt.Errorf("%w: max discrepancies must be positive", ErrInvalidInput)
	}
	return nil
}
