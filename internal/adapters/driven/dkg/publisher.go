// Package dkg publishes knowledge assets through an HTTP sidecar in front of a DKG node.
package dkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven"
)

var _ driven.AssetPublisher = (*Publisher)(nil)

// Publisher talks to the publish sidecar.
//
//	POST {endpoint}/assets       {"public": <asset>, "epochs": n} -> {"ual": "...", "assetId": "..."}
//	GET  {endpoint}/assets?ual=u -> <asset>
type Publisher struct {
	endpoint string
	client   *http.Client
	epochs   int
	maxTries uint
	initial  time.Duration
	logger   *slog.Logger
}

// PublisherConfig holds configuration for the publisher
type PublisherConfig struct {
	Endpoint string
	Timeout  time.Duration // per request, default 30s
	Epochs   int           // storage epochs requested, default 5
	MaxTries uint          // attempts when throttled, default 4
	// InitialBackoff is the first retry delay, default 500ms
	InitialBackoff time.Duration
	Logger         *slog.Logger
}

// NewPublisher creates a publisher. It returns nil when no endpoint is set.
func NewPublisher(cfg PublisherConfig) *Publisher {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 5
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		epochs:   cfg.Epochs,
		maxTries: cfg.MaxTries,
		initial:  cfg.InitialBackoff,
		logger:   logger,
	}
}

type publishRequest struct {
	Public domain.Asset `json:"public"`
	Epochs int          `json:"epochs"`
}

// Publish stores asset on the graph
func (p *Publisher) Publish(ctx context.Context, asset domain.Asset) (*domain.PublishedAsset, error) {
	body, err := json.Marshal(publishRequest{Public: asset, Epochs: p.epochs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal asset: %w", err)
	}

	data, err := p.do(ctx, http.MethodPost, p.endpoint+"/assets", body)
	if err != nil {
		return nil, err
	}

	var published domain.PublishedAsset
	if err := json.Unmarshal(data, &published); err != nil {
		return nil, fmt.Errorf("failed to parse publish response: %w", err)
	}
	if published.UAL == "" {
		return nil, fmt.Errorf("publish response has no ual")
	}
	p.logger.Info("asset published", "id", asset["@id"], "ual", published.UAL)
	return &published, nil
}

// Get fetches a published asset by UAL
func (p *Publisher) Get(ctx context.Context, ual string) (domain.Asset, error) {
	if ual == "" {
		return nil, domain.ErrNotFound
	}
	data, err := p.do(ctx, http.MethodGet, p.endpoint+"/assets?ual="+url.QueryEscape(ual), nil)
	if err != nil {
		return nil, err
	}

	var asset domain.Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("failed to parse asset: %w", err)
	}
	return asset, nil
}

// do sends one request, retrying with exponential backoff while the sidecar answers 429.
func (p *Publisher) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.initial

	attempt := 0
	return backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to read response: %w", err))
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			p.logger.Warn("publisher throttled", "attempt", attempt, "url", target)
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				return nil, backoff.RetryAfter(secs)
			}
			return nil, fmt.Errorf("%w: throttled", domain.ErrServiceUnavailable)
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(domain.ErrNotFound)
		case resp.StatusCode >= 300:
			return nil, backoff.Permanent(fmt.Errorf("%w: publisher returned status %d: %s",
				domain.ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(data))))
		}
		return data, nil
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(p.maxTries))
}
