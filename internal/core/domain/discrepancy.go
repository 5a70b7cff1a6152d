package domain

import "fmt"

// DiscrepancyType classifies how two sources disagree.
type DiscrepancyType string

const (
	DiscrepancyMissing        DiscrepancyType = "missing"
	DiscrepancyContradiction  DiscrepancyType = "contradiction"
	DiscrepancyBias           DiscrepancyType = "bias"
	DiscrepancyUnsupported    DiscrepancyType = "unsupported"
	DiscrepancyCitationAbsent DiscrepancyType = "citation_absent"
)

// IsValid returns true if this is a known discrepancy type
func (t DiscrepancyType) IsValid() bool {
	switch t {
	case DiscrepancyMissing, DiscrepancyContradiction, DiscrepancyBias,
		DiscrepancyUnsupported, DiscrepancyCitationAbsent:
		return true
	default:
		return false
	}
}

// Discrepancy is one finding of a comparison. At least one of ClaimA and
// ClaimB is set.
type Discrepancy struct {
	Type       DiscrepancyType `json:"type"`
	Summary    string          `json:"summary"`
	Confidence float64         `json:"confidence"`
	ClaimA     *Claim          `json:"claimA,omitempty"`
	ClaimB     *Claim          `json:"claimB,omitempty"`
}

// Validate checks the discrepancy shape.
func (d Discrepancy) Validate() error {
	if !d.Type.IsValid() {
		return fmt.Errorf("%w: unknown discrepancy type %q", ErrInvalidInput, d.Type)
	}
	if d.ClaimA == nil && d.ClaimB == nil {
		return fmt.Errorf("%w: discrepancy without claims", ErrInvalidInput)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: confidence out of range", ErrInvalidInput)
	}
	return nil
}

// MissingDiscrepancy records a claim of source A with no counterpart in B.
func MissingDiscrepancy(a Claim) Discrepancy {
	return Discrepancy{
		Type:       DiscrepancyMissing,
		Summary:    fmt.Sprintf("Claim in source A not found in source B: %q", a.RawText),
		Confidence: DefaultClaimConfidence,
		ClaimA:     &a,
	}
}

// UnsupportedDiscrepancy records a claim of source B with no support in A.
func UnsupportedDiscrepancy(b Claim) Discrepancy {
	return Discrepancy{
		Type:       DiscrepancyUnsupported,
		Summary:    fmt.Sprintf("Claim in source B not supported by source A: %q", b.RawText),
		Confidence: DefaultClaimConfidence,
		ClaimB:     &b,
	}
}

// ComparisonResult is the outcome of matching two claim sets.
type ComparisonResult struct {
	Topic         string        `json:"topic"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// CountByType tallies discrepancies per type.
func (r *ComparisonResult) CountByType() map[DiscrepancyType]int {
	counts := make(map[DiscrepancyType]int)
	for _, d := range r.Discrepancies {
		counts[d.Type]++
	}
	return counts
}
