// Package knowledge renders comparison results as schema.org JSON-LD documents.
package knowledge

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var _ driven.AssetGenerator = (*Generator)(nil)

const (
	schemaContext = "https://schema.org"
	dkgOntology   = "http://dkg.origintrail.io/ontology#"
	agentName     = "TruthScope Agent"
)

// Generator builds the two source Articles and the Review note of a comparison.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a JSON-LD generator
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// AssetID returns the id of the asset named suffix ("a", "b" or "note") for a job
func AssetID(jobID, suffix string) string {
	return fmt.Sprintf("urn:truthscope:job:%s:%s", jobID, suffix)
}

// ClaimRef returns the stable id of the index-th claim inside an asset
func ClaimRef(assetID string, index int) string {
	return fmt.Sprintf("%s#claim-%d", assetID, index)
}

// TrustScore is the share of baseline claims not flagged, as a percentage.
// An empty baseline scores 0.
func TrustScore(baselineClaims, discrepancies int) int {
	if baselineClaims == 0 {
		return 0
	}
	score := 100 - float64(discrepancies)/float64(baselineClaims)*100
	return int(math.Max(0, math.Round(score)))
}

// Generate renders the assets for result
func (g *Generator) Generate(ctx context.Context, jobID string, result *domain.JobResult) (*domain.KnowledgeAssets, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no result to render", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	created := g.now().UTC().Format(time.RFC3339)
	idA := AssetID(jobID, "a")
	idB := AssetID(jobID, "b")

	sourceA := article(idA, result.Topic, result.SourceA, created, result.ClaimsA, true)
	sourceB := article(idB, result.Topic, result.SourceB, created, result.ClaimsB, false)

	indexA := make(map[string]int, len(result.ClaimsA))
	for i, c := range result.ClaimsA {
		indexA[c.ID] = i
	}

	analysis := make([]map[string]any, 0, len(result.Discrepancies))
	for _, d := range result.Discrepancies {
		review := map[string]any{
			"@type":         "ClaimReview",
			"reviewAspect":  string(d.Type),
			"claimReviewed": "Missing Context",
			"reviewBody":    d.Summary,
			"confidence":    d.Confidence,
		}
		if d.ClaimB != nil {
			review["claimReviewed"] = d.ClaimB.RawText
		}
		if d.ClaimA != nil {
			if i, ok := indexA[d.ClaimA.ID]; ok {
				review["dkg:evidence"] = map[string]any{"@id": ClaimRef(idA, i)}
			}
		}
		analysis = append(analysis, review)
	}

	note := domain.Asset{
		"@context": []any{schemaContext, map[string]any{"dkg": dkgOntology}},
		"@id":      AssetID(jobID, "note"),
		"@type":    "Review",
		"name":     fmt.Sprintf("TruthScope Discrepancy Report: %s", result.Topic),
		"itemReviewed": map[string]any{
			"@id":   idB,
			"@type": "Article",
			"name":  result.SourceB + " Content",
		},
		"reviewRating": map[string]any{
			"@type":       "Rating",
			"ratingValue": TrustScore(len(result.ClaimsA), len(result.Discrepancies)),
			"bestRating":  "100",
			"worstRating": "0",
			"description": fmt.Sprintf("Trust alignment score based on factual coverage against %s", result.SourceA),
		},
		"author":      map[string]any{"@type": "Organization", "name": agentName},
		"analysis":    analysis,
		"dateCreated": created,
	}

	return &domain.KnowledgeAssets{SourceA: sourceA, SourceB: sourceB, Note: note}, nil
}

func article(id, topic, source, created string, claims []domain.Claim, describe bool) domain.Asset {
	mentions := make([]map[string]any, 0, len(claims))
	for i, c := range claims {
		m := map[string]any{
			"@type":      "Statement",
			"@id":        ClaimRef(id, i),
			"text":       c.RawText,
			"mainEntity": map[string]any{"@type": "Thing", "name": c.Subject},
			"confidence": c.Confidence,
		}
		if describe {
			m["description"] = c.Predicate + " " + c.Object
		}
		mentions = append(mentions, m)
	}

	return domain.Asset{
		"@context":    schemaContext,
		"@id":         id,
		"@type":       "Article",
		"headline":    fmt.Sprintf("%s Analysis: %s", source, topic),
		"about":       map[string]any{"@type": "Thing", "name": topic},
		"author":      map[string]any{"@type": "Organization", "name": source},
		"dateCreated": created,
		"mentions":    mentions,
	}
}
