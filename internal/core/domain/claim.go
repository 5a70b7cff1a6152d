package domain

import (
	"fmt"
	"strings"
)

// DefaultClaimConfidence is assigned when the extractor omits a confidence.
const DefaultClaimConfidence = 0.9

// Claim is an atomic factual statement extracted from a document.
// Claims are immutable once created.
type Claim struct {
	ID         string  `json:"id"`
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	RawText    string  `json:"rawText"`
	Confidence float64 `json:"confidence"`
}

// RawClaim is unvalidated output from an extraction capability.
// Models sometimes return the sentence under "text" instead of "rawText".
type RawClaim struct {
	Subject    string   `json:"subject"`
	Predicate  string   `json:"predicate"`
	Object     string   `json:"object"`
	RawText    string   `json:"rawText"`
	Text       string   `json:"text,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Sentence returns the claim's source sentence, falling back to Text.
func (r RawClaim) Sentence() string {
	if strings.TrimSpace(r.RawText) != "" {
		return r.RawText
	}
	return r.Text
}

// ToClaim converts a raw claim into a Claim with the given id.
// A missing or zero confidence becomes DefaultClaimConfidence; other values
// are clamped to [0,1].
func (r RawClaim) ToClaim(id string) Claim {
	confidence := DefaultClaimConfidence
	if r.Confidence != nil && *r.Confidence != 0 {
		confidence = clamp01(*r.Confidence)
	}
	return Claim{
		ID:         id,
		Subject:    strings.TrimSpace(r.Subject),
		Predicate:  strings.TrimSpace(r.Predicate),
		Object:     strings.TrimSpace(r.Object),
		RawText:    strings.TrimSpace(r.Sentence()),
		Confidence: confidence,
	}
}

// ClaimID formats the deterministic id of the index-th claim in a run.
func ClaimID(runSuffix string, index int) string {
	return fmt.Sprintf("claim-%s-%d", runSuffix, index)
}

// DedupKey returns the normalized identity used to drop duplicate claims.
func (c Claim) DedupKey() string {
	parts := []string{c.Subject, c.Predicate, c.Object, c.RawText}
	for i, p := range parts {
		parts[i] = normalizeText(p)
	}
	return strings.Join(parts, "|")
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
