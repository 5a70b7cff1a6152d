package services

import (
	"context"
	"log/slog"
	"math"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

const cosineEpsilon = 1e-9

// CosineSimilarity returns dot(u,v) / (|u|·|v| + 1e-9). Vectors of different
// length, including empty fallback vectors, score 0.
func CosineSimilarity(u, v []float32) float64 {
	if len(u) == 0 || len(u) != len(v) {
		return 0
	}
	var dot, nu, nv float64
	for i := range u {
		a, b := float64(u[i]), float64(v[i])
		dot += a * b
		nu += a * a
		nv += b * b
	}
	return dot / (math.Sqrt(nu)*math.Sqrt(nv) + cosineEpsilon)
}

// SemanticMatcher aligns two claim sets by embedding similarity.
type SemanticMatcher struct {
	policy  domain.MatchPolicy
	checker driven.ContradictionChecker
	metrics MetricsRecorder
	logger  *slog.Logger
}

// SemanticMatcherConfig holds dependencies for SemanticMatcher.
type SemanticMatcherConfig struct {
	Policy domain.MatchPolicy
	// Checker inspects pairs in the reworded band; nil treats them as agreement.
	Checker driven.ContradictionChecker
	Metrics MetricsRecorder
	Logger  *slog.Logger
}

// NewSemanticMatcher creates a new matcher. A zero Policy uses the defaults.
func NewSemanticMatcher(cfg SemanticMatcherConfig) *SemanticMatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	policy := cfg.Policy
	if policy == (domain.MatchPolicy{}) {
		policy = domain.DefaultMatchPolicy()
	}
	return &SemanticMatcher{
		policy:  policy,
		checker: cfg.Checker,
		metrics: metrics,
		logger:  logger,
	}
}

// Policy returns the thresholds in use.
func (m *SemanticMatcher) Policy() domain.MatchPolicy {
	return m.policy
}

// Compare matches claimsA against claimsB. Discrepancies are ordered with
// A-derived findings first and capped at MaxDiscrepancies. Only cancellation
// of ctx is returned as an error.
func (m *SemanticMatcher) Compare(ctx context.Context, cache *EmbeddingCache, topic string, claimsA, claimsB []domain.Claim) (*domain.ComparisonResult, error) {
	vecA := cache.Vectors(ctx, rawTexts(claimsA))
	vecB := cache.Vectors(ctx, rawTexts(claimsB))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	discrepancies := make([]domain.Discrepancy, 0)
	consumed := make([]bool, len(claimsB))

	for i, a := range claimsA {
		best, score := bestMatch(vecA[i], vecB)

		switch {
		case best >= 0 && score >= m.policy.SameFact:
			consumed[best] = true

		case best >= 0 && score >= m.policy.Reworded:
			consumed[best] = true
			if m.checker == nil {
				continue
			}
			d, err := m.checker.Check(ctx, a, claimsB[best])
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				m.logger.Warn("contradiction check failed", "claim_a", a.ID, "claim_b", claimsB[best].ID, "error", err)
				continue
			}
			if d != nil {
				discrepancies = append(discrepancies, *d)
			}

		default:
			discrepancies = append(discrepancies, domain.MissingDiscrepancy(a))
		}
	}

	for j, b := range claimsB {
		if consumed[j] {
			continue
		}
		if _, score := bestMatch(vecB[j], vecA); score < m.policy.Unsupported {
			discrepancies = append(discrepancies, domain.UnsupportedDiscrepancy(b))
		}
	}

	if len(discrepancies) > m.policy.MaxDiscrepancies {
		discrepancies = discrepancies[:m.policy.MaxDiscrepancies]
	}

	result := &domain.ComparisonResult{Topic: topic, Discrepancies: discrepancies}
	for kind, n := range result.CountByType() {
		m.metrics.DiscrepanciesFound(kind, n)
	}
	return result, nil
}

// bestMatch returns the index and score of the most similar candidate.
// Ties keep the first candidate; -1 means there were no candidates.
func bestMatch(v []float32, candidates [][]float32) (int, float64) {
	best, bestScore := -1, math.Inf(-1)
	for j, c := range candidates {
		if s := CosineSimilarity(v, c); s > bestScore {
			best, bestScore = j, s
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}

func rawTexts(claims []domain.Claim) []string {
	out := make([]string, len(claims))
	for i, c := range claims {
		out[i] = c.RawText
	}
	return out
}
