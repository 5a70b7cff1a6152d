package ai

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var _ driven.ClaimExtractionService = (*HeuristicClaims)(nil)

const (
	heuristicModel      = "heuristic-sentences"
	heuristicConfidence = 0.7
	// sentences shorter than this are headings or fragments
	heuristicMinLength = 10
)

var heuristicSplit = regexp.MustCompile(`[.!?]+`)

// HeuristicClaims treats every sentence as a claim.
// It needs no network access and backs the "local" provider.
type HeuristicClaims struct{}

// NewHeuristicClaims creates the offline extractor
func NewHeuristicClaims() *HeuristicClaims {
	return &HeuristicClaims{}
}

// ExtractClaims splits text into sentences and returns one claim per sentence.
func (h *HeuristicClaims) ExtractClaims(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var claims []domain.RawClaim
	for _, s := range heuristicSplit.Split(text, -1) {
		sentence := strings.Join(strings.Fields(s), " ")
		if len([]rune(sentence)) <= heuristicMinLength {
			continue
		}
		subject, rest, _ := strings.Cut(sentence, " ")
		predicate, object, _ := strings.Cut(rest, " ")
		confidence := heuristicConfidence
		claims = append(claims, domain.RawClaim{
			Subject:    subject,
			Predicate:  predicate,
			Object:     object,
			RawText:    sentence,
			Confidence: &confidence,
		})
	}
	return claims, nil
}

func (h *HeuristicClaims) Model() string                  { return heuristicModel }
func (h *HeuristicClaims) Ping(ctx context.Context) error { return nil }
func (h *HeuristicClaims) Close() error                   { return nil }
