package services

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

// genericClaimPatterns match boilerplate sentences that carry no checkable fact.
var genericClaimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsubject of (?:\w+\s+)*interest\b`),
	regexp.MustCompile(`(?i)\b(?:this|the) article (?:discusses|describes|covers)\b`),
	regexp.MustCompile(`(?i)\b(?:may |can )?refer to:`),
	regexp.MustCompile(`^\s*\[\d+\]\s*$`),
	regexp.MustCompile(`^\s*\[(?:citation needed|clarification needed)\]\s*$`),
}

var topicStopwords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "been": {}, "before": {}, "being": {},
	"between": {}, "from": {}, "have": {}, "history": {}, "into": {}, "more": {},
	"most": {}, "only": {}, "other": {}, "over": {}, "some": {}, "such": {},
	"than": {}, "that": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "those": {}, "through": {}, "very": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"with": {}, "within": {}, "would": {}, "your": {},
}

// minTopicFilterClaims is the smallest set the topic filter may leave behind.
const minTopicFilterClaims = 2

// ClaimExtractor chunks a document, extracts claims per chunk and cleans the aggregate.
type ClaimExtractor struct {
	extractor   driven.ClaimExtractionService
	chunks      domain.ChunkSettings
	concurrency int
	metrics     MetricsRecorder
	logger      *slog.Logger
}

// ClaimExtractorConfig holds dependencies for ClaimExtractor.
type ClaimExtractorConfig struct {
	Extractor   driven.ClaimExtractionService
	Chunks      domain.ChunkSettings
	Concurrency int // Chunks extracted in parallel per document
	Metrics     MetricsRecorder
	Logger      *slog.Logger
}

// NewClaimExtractor creates a new claim extractor.
func NewClaimExtractor(cfg ClaimExtractorConfig) *ClaimExtractor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	chunks := cfg.Chunks
	if chunks.TargetLength <= 0 || chunks.MaxChunks <= 0 {
		chunks = domain.DefaultChunkSettings()
	}

	return &ClaimExtractor{
		extractor:   cfg.Extractor,
		chunks:      chunks,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
	}
}

// Extract returns the cleaned claims of text. A failing chunk is skipped;
// only cancellation of ctx is returned as an error.
func (e *ClaimExtractor) Extract(ctx context.Context, text, topic, runID string) ([]domain.Claim, error) {
	chunks := Chunk(text, e.chunks.TargetLength, e.chunks.MaxChunks)
	if len(chunks) == 0 {
		return []domain.Claim{}, nil
	}

	logger := e.logger.With("run_id", runID)
	perChunk := make([][]domain.RawClaim, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			raw, err := e.extractChunk(gctx, chunk, topic)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.metrics.ChunkFailed()
				logger.Warn("claim extraction failed for chunk, skipping",
					"chunk", i,
					"chunk_runes", utf8.RuneCountInString(chunk),
					"malformed", errors.Is(err, domain.ErrMalformedOutput),
					"error", err,
				)
				return nil
			}
			perChunk[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	suffix := runSuffix(runID)
	var claims []domain.Claim
	for _, raw := range perChunk {
		for _, r := range raw {
			claims = append(claims, r.ToClaim(domain.ClaimID(suffix, len(claims))))
		}
	}

	claims = DedupClaims(claims)
	claims = dropGenericClaims(claims)
	claims = FilterByTopic(claims, topic)

	logger.Debug("claims extracted", "chunks", len(chunks), "claims", len(claims))
	return claims, nil
}

// extractChunk calls the extractor for one chunk, reporting a panic as that chunk's error.
func (e *ClaimExtractor) extractChunk(ctx context.Context, chunk, topic string) (raw []domain.RawClaim, err error) {
	defer recoverAsError(&err)
	return e.extractor.ExtractClaims(ctx, chunk, topic)
}

// DedupClaims drops claims whose normalized (subject, predicate, object, rawText)
// was already seen. Order is preserved and the first occurrence wins.
func DedupClaims(claims []domain.Claim) []domain.Claim {
	seen := make(map[string]struct{}, len(claims))
	out := make([]domain.Claim, 0, len(claims))
	for _, c := range claims {
		key := c.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// IsGenericClaim reports boilerplate or empty claims.
func IsGenericClaim(c domain.Claim) bool {
	if strings.TrimSpace(c.RawText) == "" {
		return true
	}
	for _, p := range genericClaimPatterns {
		if p.MatchString(c.RawText) {
			return true
		}
	}
	return false
}

func dropGenericClaims(claims []domain.Claim) []domain.Claim {
	out := make([]domain.Claim, 0, len(claims))
	for _, c := range claims {
		if !IsGenericClaim(c) {
			out = append(out, c)
		}
	}
	return out
}

// TopicKeywords returns the lowercased topic words of at least four runes
// that are not stopwords.
func TopicKeywords(topic string) []string {
	var keywords []string
	seen := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(topic), func(r rune) bool {
		return !(r == '-' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	for _, w := range words {
		if utf8.RuneCountInString(w) < 4 {
			continue
		}
		if _, stop := topicStopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

// FilterByTopic keeps claims mentioning a topic keyword in rawText, subject
// or object. The filtered set is used only when it keeps at least two claims.
func FilterByTopic(claims []domain.Claim, topic string) []domain.Claim {
	keywords := TopicKeywords(topic)
	if len(keywords) == 0 {
		return claims
	}

	filtered := make([]domain.Claim, 0, len(claims))
	for _, c := range claims {
		haystack := strings.ToLower(c.RawText + " " + c.Subject + " " + c.Object)
		for _, k := range keywords {
			if strings.Contains(haystack, k) {
				filtered = append(filtered, c)
				break
			}
		}
	}
	if len(filtered) < minTopicFilterClaims {
		return claims
	}
	return filtered
}

// runSuffix derives the claim id suffix from a run id, or a random base-36 tag.
func runSuffix(runID string) string {
	if runID != "" {
		return strings.ReplaceAll(runID, ":", "-")
	}
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 6)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			b[i] = alphabet[i]
			continue
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}
