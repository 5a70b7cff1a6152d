package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/truthscope/internal/core/ports/driving"
	"github.com/custodia-labs/truthscope/internal/runtime"
	"github.com/custodia-labs/truthscope/internal/worker"
)

type comparisonEnv struct {
	svc       *ComparisonService
	store     *mocks.MockJobStore
	services  *runtime.Services
	extractor *mocks.MockClaimExtractionService
	embedder  *mocks.MockEmbeddingService
	generator *mocks.MockAssetGenerator
	publisher *mocks.MockAssetPublisher
	worker    *worker.Worker
}

func newComparisonEnv(t *testing.T) *comparisonEnv {
	t.Helper()

	w := worker.NewWorker(worker.WorkerConfig{Concurrency: 2, TaskTimeout: 10 * time.Second})
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	env := &comparisonEnv{
		store:     mocks.NewMockJobStore(),
		services:  runtime.NewServices(domain.NewRuntimeConfig("memory")),
		extractor: mocks.NewMockClaimExtractionService(),
		embedder:  mocks.NewMockEmbeddingService(),
		generator: &mocks.MockAssetGenerator{},
		publisher: mocks.NewMockAssetPublisher(),
		worker:    w,
	}
	env.services.SetExtractionService(env.extractor)
	env.services.SetEmbeddingService(env.embedder)

	env.svc = NewComparisonService(ComparisonServiceConfig{
		JobStore:     env.store,
		Services:     env.services,
		Runner:       w,
		Generator:    env.generator,
		Publisher:    env.publisher,
		PollInterval: 10 * time.Millisecond,
	})
	return env
}

func (e *comparisonEnv) await(t *testing.T, id string) *domain.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := e.svc.Await(ctx, id)
	require.NoError(t, err)
	return job
}

func TestComparisonService_MissingCredential(t *testing.T) {
	env := newComparisonEnv(t)
	env.services.SetExtractionService(nil)

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "Earth", TextA: "a", TextB: "b"})

	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Empty(t, id)
	assert.Equal(t, 0, env.store.Count(), "no job may exist")
}

func TestComparisonService_MissingTopic(t *testing.T) {
	env := newComparisonEnv(t)

	_, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "   "})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, env.store.Count())
}

func TestComparisonService_IdenticalTexts(t *testing.T) {
	env := newComparisonEnv(t)
	text := "The Earth orbits the Sun. The Moon orbits the Earth."

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "Earth orbit", TextA: text, TextB: text})
	require.NoError(t, err)

	job := env.await(t, id)

	require.Equal(t, domain.JobStatusCompleted, job.Status, job.Error)
	require.NotNil(t, job.Result)
	assert.Empty(t, job.Result.Discrepancies)
	assert.Len(t, job.Result.ClaimsA, 2)
	assert.Len(t, job.Result.ClaimsB, 2)
	assert.Equal(t, domain.DefaultSourceA, job.SourceA)
	assert.Equal(t, domain.DefaultSourceB, job.SourceB)
	assert.True(t, strings.HasPrefix(job.Result.ClaimsA[0].ID, "claim-"+id+"-a-"))
	assert.Equal(t, []domain.JobStatus{domain.JobStatusProcessing, domain.JobStatusCompleted}, env.store.History(id))
}

func TestComparisonService_EmptySourceB(t *testing.T) {
	env := newComparisonEnv(t)

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{
		Topic: "Earth",
		TextA: "The Earth orbits the Sun.",
		TextB: "",
	})
	require.NoError(t, err)

	job := env.await(t, id)

	require.Equal(t, domain.JobStatusCompleted, job.Status, job.Error)
	assert.Empty(t, job.Result.ClaimsB)
	require.Len(t, job.Result.Discrepancies, len(job.Result.ClaimsA))
	for i, d := range job.Result.Discrepancies {
		assert.Equal(t, domain.DiscrepancyMissing, d.Type)
		require.NotNil(t, d.ClaimA)
		assert.Equal(t, job.Result.ClaimsA[i].ID, d.ClaimA.ID)
	}
}

func TestComparisonService_SubmitDoesNotBlock(t *testing.T) {
	env := newComparisonEnv(t)
	release := make(chan struct{})
	env.extractor.ExtractFunc = func(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return []domain.RawClaim{{Subject: "x", RawText: text}}, nil
	}

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "x", TextA: "Same.", TextB: "Same."})
	require.NoError(t, err)

	job, err := env.svc.Poll(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)

	close(release)
	job = env.await(t, id)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
}

func TestComparisonService_PanicMarksFailed(t *testing.T) {
	env := newComparisonEnv(t)
	env.generator.GenerateFunc = func(ctx context.Context, jobID string, result *domain.JobResult) (*domain.KnowledgeAssets, error) {
		panic("generator exploded")
	}

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "x", TextA: "A.", TextB: "B."})
	require.NoError(t, err)

	job := env.await(t, id)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "generator exploded")
	assert.Nil(t, job.Result)
	assert.Equal(t, []domain.JobStatus{domain.JobStatusProcessing, domain.JobStatusFailed}, env.store.History(id))
}

func TestComparisonService_ExtractorPanicSkipsChunk(t *testing.T) {
	env := newComparisonEnv(t)
	env.svc.chunks = domain.ChunkSettings{TargetLength: 26, MaxChunks: 8}
	env.extractor.ExtractFunc = func(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
		if strings.HasPrefix(text, "Bad") {
			panic("decoder blew up")
		}
		return []domain.RawClaim{{Subject: "Earth", Predicate: "orbits", Object: "Sun", RawText: text}}, nil
	}

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{
		Topic: "x",
		TextA: "The Earth orbits the Sun.\n\nBad paragraph here.",
		TextB: "The Earth orbits the Sun.",
	})
	require.NoError(t, err)

	job := env.await(t, id)

	require.Equal(t, domain.JobStatusCompleted, job.Status, job.Error)
	require.Len(t, job.Result.ClaimsA, 1)
	assert.Equal(t, "The Earth orbits the Sun.", job.Result.ClaimsA[0].RawText)
	assert.Empty(t, job.Result.Discrepancies)
}

func TestComparisonService_GeneratorErrorMarksFailed(t *testing.T) {
	env := newComparisonEnv(t)
	env.generator.Err = errors.New("template broken")

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "x", TextA: "A.", TextB: "A."})
	require.NoError(t, err)

	job := env.await(t, id)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "template broken")

	task, ok := env.svc.Task(id)
	if ok {
		assert.Error(t, task.Err())
	}
}

func TestComparisonService_PublishFailureIsIsolated(t *testing.T) {
	env := newComparisonEnv(t)
	env.publisher.FailWhen = func(asset domain.Asset) bool {
		id, _ := asset["@id"].(string)
		return strings.HasSuffix(id, ":b")
	}

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "x", TextA: "A.", TextB: "A."})
	require.NoError(t, err)

	job := env.await(t, id)

	require.Equal(t, domain.JobStatusCompleted, job.Status, job.Error)
	require.NotNil(t, job.Result.Assets)
	published := job.Result.Published
	require.Len(t, published, 3)
	assert.NotNil(t, published[domain.AssetSourceA])
	assert.Nil(t, published[domain.AssetSourceB])
	assert.NotNil(t, published[domain.AssetNote])

	asset, err := env.svc.GetAsset(context.Background(), published[domain.AssetNote].UAL)
	require.NoError(t, err)
	assert.Equal(t, "urn:test:"+id+":note", asset["@id"])
}

func TestComparisonService_PollUnknown(t *testing.T) {
	env := newComparisonEnv(t)

	_, err := env.svc.Poll(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Poll(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComparisonService_GetAssetWithoutPublisher(t *testing.T) {
	svc := NewComparisonService(ComparisonServiceConfig{JobStore: mocks.NewMockJobStore()})

	_, err := svc.GetAsset(context.Background(), "did:dkg:x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComparisonService_RunnerStopped(t *testing.T) {
	env := newComparisonEnv(t)
	env.worker.Stop()

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "x", TextA: "A.", TextB: "B."})

	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Empty(t, id)
	require.Equal(t, 1, env.store.Count())
}

func TestComparisonService_StopFailsQueuedJob(t *testing.T) {
	env := newComparisonEnv(t)
	w := worker.NewWorker(worker.WorkerConfig{Concurrency: 1, QueueSize: 4, TaskTimeout: 10 * time.Second})
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	env.svc.runner = w

	started := make(chan struct{})
	var once sync.Once
	env.extractor.ExtractFunc = func(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return nil, ctx.Err()
	}

	running, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "x", TextA: "A.", TextB: "B."})
	require.NoError(t, err)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never started")
	}
	queued, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "y", TextA: "A.", TextB: "B."})
	require.NoError(t, err)

	w.Stop()

	for _, id := range []string{running, queued} {
		job := env.await(t, id)
		assert.Equal(t, domain.JobStatusFailed, job.Status, "job %s", id)
		assert.NotEmpty(t, job.Error)
		assert.Equal(t, []domain.JobStatus{domain.JobStatusProcessing, domain.JobStatusFailed}, env.store.History(id))
	}
}

func TestComparisonService_JobTimeout(t *testing.T) {
	env := newComparisonEnv(t)
	w := worker.NewWorker(worker.WorkerConfig{TaskTimeout: 50 * time.Millisecond})
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	env.svc.runner = w
	env.extractor.ExtractFunc = func(ctx context.Context, text, topic string) ([]domain.RawClaim, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	id, err := env.svc.Submit(context.Background(), driving.CompareRequest{Topic: "x", TextA: "A.", TextB: "B."})
	require.NoError(t, err)

	job := env.await(t, id)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "timed out")
}

func TestComparisonService_ConcurrentJobs(t *testing.T) {
	env := newComparisonEnv(t)

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := env.svc.Submit(context.Background(), driving.CompareRequest{
			Topic: "Earth",
			TextA: "The Earth orbits the Sun.",
			TextB: "The Earth orbits the Sun.",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for _, id := range ids {
		job := env.await(t, id)
		assert.Equal(t, domain.JobStatusCompleted, job.Status)
		history := env.store.History(id)
		assert.Len(t, history, 2)
		assert.True(t, history[len(history)-1].IsTerminal())
	}
}
