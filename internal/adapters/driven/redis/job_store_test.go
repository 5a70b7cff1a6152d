package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

// setupTestRedis creates a miniredis server and a client connected to it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestConnect(t *testing.T) {
	_, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	if _, err := Connect(context.Background(), "not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestJobStore_CreateGet(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewJobStore(client, time.Hour)
	ctx := context.Background()
	job := domain.NewJob("Earth", "Wikipedia", "Grokipedia")

	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != job.ID || got.Topic != "Earth" || got.Status != domain.JobStatusPending {
		t.Errorf("Get() = %+v", got)
	}

	if ttl := mr.TTL(jobPrefix + job.ID); ttl != time.Hour {
		t.Errorf("expected 1h TTL, got %v", ttl)
	}
}

func TestJobStore_CreateDuplicate(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewJobStore(client, 0)
	job := domain.NewJob("Earth", "", "")

	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(context.Background(), job); err != domain.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestJobStore_GetNotFound(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	if _, err := NewJobStore(client, 0).Get(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobStore_PatchLifecycle(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewJobStore(client, time.Hour)
	ctx := context.Background()
	job := domain.NewJob("Earth", "", "")
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := store.Patch(ctx, job.ID, domain.JobPatch{Status: domain.JobStatusProcessing}); err != nil {
		t.Fatalf("Patch(processing) error = %v", err)
	}

	result := &domain.JobResult{
		Topic:         "Earth",
		ClaimsA:       []domain.Claim{{ID: "claim-1", RawText: "The Earth orbits the Sun."}},
		Discrepancies: []domain.Discrepancy{},
	}
	done, err := store.Patch(ctx, job.ID, domain.JobPatch{Status: domain.JobStatusCompleted, Result: result})
	if err != nil {
		t.Fatalf("Patch(completed) error = %v", err)
	}
	if done.CompletedAt == nil || done.Result == nil {
		t.Errorf("expected completion time and result, got %+v", done)
	}

	stored, _ := store.Get(ctx, job.ID)
	if stored.Status != domain.JobStatusCompleted || len(stored.Result.ClaimsA) != 1 {
		t.Errorf("stored job = %+v", stored)
	}
}

func TestJobStore_PatchRejectsInvalidTransition(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewJobStore(client, 0)
	ctx := context.Background()
	job := domain.NewJob("Earth", "", "")
	_ = store.Create(ctx, job)

	_, err := store.Patch(ctx, job.ID, domain.JobPatch{Status: domain.JobStatusCompleted})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := store.Patch(ctx, "missing", domain.JobPatch{Status: domain.JobStatusProcessing}); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobStore_ConcurrentTerminalPatches(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewJobStore(client, 0)
	ctx := context.Background()
	job := domain.NewJob("Earth", "", "")
	job.MarkProcessing()
	_ = store.Create(ctx, job)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := domain.JobStatusCompleted
			if i%2 == 0 {
				status = domain.JobStatusFailed
			}
			if _, err := store.Patch(ctx, job.ID, domain.JobPatch{Status: status}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one terminal transition, got %d", wins)
	}
}

func TestJobStore_Ping(t *testing.T) {
	client, mr, _ := setupTestRedis(t)
	defer client.Close()

	store := NewJobStore(client, 0)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	mr.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("expected Ping() to fail after server shutdown")
	}
}
