package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var (
	_ driven.ClaimExtractionService = (*OpenAIClaims)(nil)
	_ driven.ContradictionChecker   = (*OpenAIClaims)(nil)
)

const defaultChatModel = openai.GPT4oMini

const claimExtractionPrompt = `You are a strict fact extraction assistant.
Input: a passage of an encyclopedia page about the topic %q.
Output: a JSON array of atomic factual claims about that topic.
Each claim is one short objective sentence without hedging.
Give every claim the fields subject, predicate, object and rawText.
Return JSON only, without explanation. Example:
[{"subject":"Earth","predicate":"orbits","object":"the Sun","rawText":"The Earth orbits the Sun once every 365 days."}]`

const contradictionPrompt = `You compare two factual claims about the same subject.
Answer with a JSON object {"contradicts": bool, "summary": string, "confidence": number}.
"contradicts" is true only when both claims cannot be true at once.
Return JSON only.`

// OpenAIClaims extracts claims with an OpenAI-compatible chat completion API
type OpenAIClaims struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
}

// OpenAIClaimsConfig holds configuration for the chat adapter
type OpenAIClaimsConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIClaims creates a claim extraction service for OpenAI
func NewOpenAIClaims(cfg OpenAIClaimsConfig) (*OpenAIClaims, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	return newOpenAICompatibleClaims(cfg), nil
}

// NewOllamaClaims creates a claim extraction service for a local Ollama server
func NewOllamaClaims(cfg OpenAIClaimsConfig) (*OpenAIClaims, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama chat model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaBaseURL
	}
	return newOpenAICompatibleClaims(cfg), nil
}

func newOpenAICompatibleClaims(cfg OpenAIClaimsConfig) *OpenAIClaims {
	if cfg.Model == "" {
		cfg.Model = defaultChatModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAITimeout
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = httpClient

	return &OpenAIClaims{
		client:     openai.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
		model:      cfg.Model,
	}
}

// ExtractClaims asks the model for the claims in text.
// A reply that is not a JSON array of claims yields domain.ErrMalformedOutput.
func (c *OpenAIClaims) ExtractClaims(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
	content, err := c.complete(ctx, fmt.Sprintf(claimExtractionPrompt, topic), text)
	if err != nil {
		return nil, err
	}
	return ParseClaimArray(content)
}

// Check asks the model whether a reworded pair contradicts.
func (c *OpenAIClaims) Check(ctx context.Context, a, b domain.Claim) (*domain.Discrepancy, error) {
	user, err := json.Marshal(map[string]string{"claimA": a.RawText, "claimB": b.RawText})
	if err != nil {
		return nil, err
	}
	content, err := c.complete(ctx, contradictionPrompt, string(user))
	if err != nil {
		return nil, err
	}

	var verdict struct {
		Contradicts bool     `json:"contradicts"`
		Summary     string   `json:"summary"`
		Confidence  *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &verdict); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	if !verdict.Contradicts {
		return nil, nil
	}

	confidence := 0.8
	if verdict.Confidence != nil && *verdict.Confidence >= 0 && *verdict.Confidence <= 1 {
		confidence = *verdict.Confidence
	}
	summary := strings.TrimSpace(verdict.Summary)
	if summary == "" {
		summary = fmt.Sprintf("Claims disagree: %q vs %q", a.RawText, b.RawText)
	}
	claimA, claimB := a, b
	return &domain.Discrepancy{
		Type:       domain.DiscrepancyContradiction,
		Summary:    summary,
		Confidence: confidence,
		ClaimA:     &claimA,
		ClaimB:     &claimB,
	}, nil
}

// Model returns the model name being used
func (c *OpenAIClaims) Model() string {
	return c.model
}

// Ping verifies the API is reachable and the key is accepted
func (c *OpenAIClaims) Ping(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	return nil
}

// Close releases idle connections
func (c *OpenAIClaims) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *OpenAIClaims) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return "", fmt.Errorf("%w: %s", domain.ErrMissingCredential, apiErr.Message)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrMalformedOutput)
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseClaimArray decodes a model reply into raw claims.
// Markdown code fences around the JSON are tolerated.
func ParseClaimArray(content string) ([]domain.RawClaim, error) {
	body := stripCodeFence(content)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrMalformedOutput)
	}
	if !strings.HasPrefix(body, "[") {
		return nil, fmt.Errorf("%w: reply is not a JSON array", domain.ErrMalformedOutput)
	}

	var claims []domain.RawClaim
	if err := json.Unmarshal([]byte(body), &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}

	out := claims[:0]
	for _, rc := range claims {
		if strings.TrimSpace(rc.Sentence()) == "" {
			continue
		}
		out = append(out, rc)
	}
	return out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
