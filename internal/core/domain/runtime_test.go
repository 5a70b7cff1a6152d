package domain

import (
	"sync"
	"testing"
)

func TestNewRuntimeConfig(t *testing.T) {
	config := NewRuntimeConfig("redis")

	if config == nil {
		t.Fatal("expected non-nil config")
	}
	if config.JobBackend != "redis" {
		t.Errorf("expected redis, got %s", config.JobBackend)
	}
	if !config.RequireCredential {
		t.Error("expected credentials to be required by default")
	}
	if config.ExtractionAvailable() || config.EmbeddingAvailable() {
		t.Error("expected capabilities to be unavailable initially")
	}
	if config.CanCompare() {
		t.Error("expected CanCompare false initially")
	}
}

func TestRuntimeConfig_CanCompare(t *testing.T) {
	config := NewRuntimeConfig("memory")

	config.SetExtractionAvailable(true)
	if config.CanCompare() {
		t.Error("expected CanCompare false without embedding")
	}

	config.SetEmbeddingAvailable(true)
	if !config.CanCompare() {
		t.Error("expected CanCompare true with both capabilities")
	}

	config.SetExtractionAvailable(false)
	if config.CanCompare() {
		t.Error("expected CanCompare false after clearing extraction")
	}
}

func TestRuntimeConfig_Concurrent(t *testing.T) {
	config := NewRuntimeConfig("memory")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			config.SetEmbeddingAvailable(v)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = config.CanCompare()
		}()
	}
	wg.Wait()
}
