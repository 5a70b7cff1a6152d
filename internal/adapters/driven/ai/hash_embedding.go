package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*HashEmbedding)(nil)

const defaultHashDimensions = 256

// HashEmbedding projects a bag of words onto a fixed number of signed buckets.
// Texts sharing vocabulary score high under cosine similarity.
type HashEmbedding struct {
	dimensions int
}

// NewHashEmbedding creates the offline embedder
func NewHashEmbedding(dimensions int) *HashEmbedding {
	if dimensions <= 0 {
		dimensions = defaultHashDimensions
	}
	return &HashEmbedding{dimensions: dimensions}
}

// Embed generates embeddings for multiple texts
func (h *HashEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := h.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EmbedQuery returns the unit-length bucket vector of text
func (h *HashEmbedding) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := make([]float32, h.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(w))
		sum := hasher.Sum64()
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		v[sum%uint64(h.dimensions)] += sign
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

func (h *HashEmbedding) Dimensions() int                       { return h.dimensions }
func (h *HashEmbedding) Model() string                         { return "hashed-bag-of-words" }
func (h *HashEmbedding) HealthCheck(ctx context.Context) error { return nil }
func (h *HashEmbedding) Close() error                          { return nil }
