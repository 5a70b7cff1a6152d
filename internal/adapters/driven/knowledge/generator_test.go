package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

func fixedGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }}
}

func TestTrustScore(t *testing.T) {
	tests := []struct {
		baseline, discrepancies, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{4, 0, 100},
		{4, 1, 75},
		{3, 1, 67},
		{2, 5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrustScore(tt.baseline, tt.discrepancies), "TrustScore(%d, %d)", tt.baseline, tt.discrepancies)
	}
}

func TestGenerator_Generate(t *testing.T) {
	claimA0 := domain.Claim{ID: "claim-j-a-0", Subject: "Earth", Predicate: "orbits", Object: "the Sun", RawText: "The Earth orbits the Sun.", Confidence: 0.9}
	claimA1 := domain.Claim{ID: "claim-j-a-1", Subject: "Moon", Predicate: "orbits", Object: "Earth", RawText: "The Moon orbits the Earth.", Confidence: 0.9}
	claimB0 := domain.Claim{ID: "claim-j-b-0", Subject: "Mars", RawText: "Mars has two moons.", Confidence: 0.9}

	result := &domain.JobResult{
		Topic:   "Solar system",
		SourceA: "Wikipedia",
		SourceB: "Grokipedia",
		ClaimsA: []domain.Claim{claimA0, claimA1},
		ClaimsB: []domain.Claim{claimB0},
		Discrepancies: []domain.Discrepancy{
			domain.MissingDiscrepancy(claimA1),
			domain.UnsupportedDiscrepancy(claimB0),
		},
	}

	assets, err := fixedGenerator().Generate(context.Background(), "j", result)
	require.NoError(t, err)

	assert.Equal(t, "urn:truthscope:job:j:a", assets.SourceA["@id"])
	assert.Equal(t, "Article", assets.SourceA["@type"])
	mentionsA := assets.SourceA["mentions"].([]map[string]any)
	require.Len(t, mentionsA, 2)
	assert.Equal(t, "urn:truthscope:job:j:a#claim-1", mentionsA[1]["@id"])
	assert.Equal(t, "orbits Earth", mentionsA[1]["description"])

	mentionsB := assets.SourceB["mentions"].([]map[string]any)
	_, hasDescription := mentionsB[0]["description"]
	assert.False(t, hasDescription)

	note := assets.Note
	assert.Equal(t, "urn:truthscope:job:j:note", note["@id"])
	assert.Equal(t, "Review", note["@type"])
	assert.Equal(t, "urn:truthscope:job:j:b", note["itemReviewed"].(map[string]any)["@id"])
	assert.Equal(t, 0, note["reviewRating"].(map[string]any)["ratingValue"])
	assert.Equal(t, "2026-03-01T12:00:00Z", note["dateCreated"])

	analysis := note["analysis"].([]map[string]any)
	require.Len(t, analysis, 2)
	assert.Equal(t, "missing", analysis[0]["reviewAspect"])
	assert.Equal(t, "Missing Context", analysis[0]["claimReviewed"])
	assert.Equal(t, map[string]any{"@id": "urn:truthscope:job:j:a#claim-1"}, analysis[0]["dkg:evidence"])
	assert.Equal(t, "Mars has two moons.", analysis[1]["claimReviewed"])
	_, hasEvidence := analysis[1]["dkg:evidence"]
	assert.False(t, hasEvidence)

	_, err = json.Marshal(assets)
	assert.NoError(t, err, "assets must serialise as JSON")
}

func TestGenerator_EmptyResult(t *testing.T) {
	assets, err := fixedGenerator().Generate(context.Background(), "j", &domain.JobResult{Topic: "x"})
	require.NoError(t, err)

	assert.Empty(t, assets.SourceA["mentions"])
	assert.Empty(t, assets.Note["analysis"])
	assert.Len(t, assets.Named(), 3)
}

func TestGenerator_NilResult(t *testing.T) {
	_, err := NewGenerator().Generate(context.Background(), "j", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
