package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestNewOpenAIEmbedding_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{Model: "text-embedding-3-small"})
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIEmbedding_Defaults(t *testing.T) {
	emb, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if emb.model != "text-embedding-3-small" {
		t.Errorf("expected default model text-embedding-3-small, got %s", emb.model)
	}
	if emb.baseURL != "https://api.openai.com/v1" {
		t.Errorf("expected default base URL, got %s", emb.baseURL)
	}
}

func TestNewOllamaEmbedding_DefaultBaseURL(t *testing.T) {
	emb, err := NewOllamaEmbedding(OpenAIEmbeddingConfig{Model: "nomic-embed-text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.baseURL != "http://localhost:11434/v1" {
		t.Errorf("expected ollama base URL, got %s", emb.baseURL)
	}
	if emb.Dimensions() != 0 {
		t.Errorf("expected unknown dimensions, got %d", emb.Dimensions())
	}
}

func TestOpenAIEmbedding_Dimensions(t *testing.T) {
	testCases := []struct {
		model      string
		override   int
		dimensions int
	}{
		{"text-embedding-3-small", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-ada-002", 0, 1536},
		{"text-embedding-3-small", 512, 512},
	}

	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			emb, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test", Model: tc.model, Dimensions: tc.override})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if emb.Dimensions() != tc.dimensions {
				t.Errorf("expected dimensions %d, got %d", tc.dimensions, emb.Dimensions())
			}
		})
	}
}

func newEmbeddingServer(t *testing.T, handler func(req openai.EmbeddingRequest) (int, any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected path /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected bearer auth, got %s", r.Header.Get("Authorization"))
		}
		var req openai.EmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIEmbedding_Embed_OrdersByIndex(t *testing.T) {
	server := newEmbeddingServer(t, func(req openai.EmbeddingRequest) (int, any) {
		return http.StatusOK, openai.EmbeddingResponse{
			Object: "list",
			Data: []openai.Embedding{
				{Object: "embedding", Index: 1, Embedding: []float32{0, 1}},
				{Object: "embedding", Index: 0, Embedding: []float32{1, 0}},
			},
		}
	})

	emb, err := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vectors, err := emb.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 2 || vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("unexpected vectors: %v", vectors)
	}
}

func TestOpenAIEmbedding_Embed_Empty(t *testing.T) {
	emb, _ := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test"})

	vectors, err := emb.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Errorf("expected nil, nil for empty input, got %v, %v", vectors, err)
	}
}

func TestOpenAIEmbedding_EmbedQuery_MissingData(t *testing.T) {
	server := newEmbeddingServer(t, func(req openai.EmbeddingRequest) (int, any) {
		return http.StatusOK, openai.EmbeddingResponse{Object: "list"}
	})
	emb, _ := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test", BaseURL: server.URL})

	if _, err := emb.EmbedQuery(context.Background(), "x"); err == nil {
		t.Error("expected error when no embedding is returned")
	}
}

func TestOpenAIEmbedding_APIError(t *testing.T) {
	server := newEmbeddingServer(t, func(req openai.EmbeddingRequest) (int, any) {
		return http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit"},
		}
	})
	emb, _ := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test", BaseURL: server.URL})

	if err := emb.HealthCheck(context.Background()); err == nil {
		t.Error("expected error from API failure")
	}
}

func TestOpenAIEmbedding_Close(t *testing.T) {
	emb, _ := NewOpenAIEmbedding(OpenAIEmbeddingConfig{APIKey: "sk-test"})
	if err := emb.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
