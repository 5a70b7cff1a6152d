package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var (
	// ErrNotRunning is returned by Submit before Start or after Stop.
	ErrNotRunning = errors.New("worker not running")
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("worker queue full")
)

// Func is the body of a background task.
type Func func(ctx context.Context) error

// Task is the future of a submitted Func.
type Task struct {
	ID string

	fn   Func
	done chan struct{}
	err  error
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task error once Done is closed, nil before.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Worker runs submitted tasks on a fixed pool of goroutines.
type Worker struct {
	logger *slog.Logger

	// Configuration
	concurrency int
	queueSize   int
	taskTimeout time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	queue   chan *Task
	stopCh  chan struct{}
	doneCh  chan struct{}
	cancel  context.CancelFunc
	active  int
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Logger      *slog.Logger
	Concurrency int           // Number of tasks run at once
	QueueSize   int           // Tasks accepted while all goroutines are busy
	TaskTimeout time.Duration // Upper bound on one task, 0 for none
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	return &Worker{
		logger:      logger,
		concurrency: concurrency,
		queueSize:   queueSize,
		taskTimeout: cfg.TaskTimeout,
	}
}

// Start launches the worker goroutines.
// They run until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.queue = make(chan *Task, w.queueSize)
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	queue, stopCh, doneCh := w.queue, w.stopCh, w.doneCh
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"queue_size", w.queueSize,
		"task_timeout", w.taskTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(runCtx, workerID, queue, stopCh)
		}(i)
	}

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	return nil
}

// Submit queues fn and returns its future without waiting for it to run.
func (w *Worker) Submit(id string, fn Func) (*Task, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.running {
		return nil, ErrNotRunning
	}

	task := &Task{ID: id, fn: fn, done: make(chan struct{})}
	select {
	case w.queue <- task:
		return task, nil
	default:
		return nil, ErrQueueFull
	}
}

// Stop cancels running tasks, fails queued ones and waits for the goroutines.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.cancel()
	queue, doneCh := w.queue, w.doneCh
	w.mu.Unlock()

	<-doneCh

	// Nothing can be enqueued any more; drain what was left behind.
	for {
		select {
		case task := <-queue:
			w.finish(task, fmt.Errorf("%w: task %s not started", ErrNotRunning, task.ID))
		default:
			w.logger.Info("worker stopped")
			return
		}
	}
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	doneCh := w.doneCh
	w.mu.RUnlock()
	if doneCh == nil {
		return
	}
	<-doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int, queue <-chan *Task, stopCh <-chan struct{}) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		case <-stopCh:
			logger.Debug("worker stop signal received")
			return
		case task := <-queue:
			w.processTask(ctx, task, logger)
		}
	}
}

// processTask runs one task and resolves its future.
func (w *Worker) processTask(ctx context.Context, task *Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID)
	logger.Debug("processing task")

	w.mu.Lock()
	w.active++
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.active--
		w.mu.Unlock()
	}()

	if w.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.taskTimeout)
		defer cancel()
	}

	startTime := time.Now()
	err := safeRun(ctx, task.fn, logger)
	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed", "duration", duration, "error", err)
	} else {
		logger.Debug("task completed", "duration", duration)
	}
	w.finish(task, err)
}

func (w *Worker) finish(task *Task, err error) {
	task.err = err
	close(task.done)
}

// safeRun converts a panic in fn into an error.
func safeRun(ctx context.Context, fn Func, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Health describes the worker state.
type Health struct {
	Running bool `json:"running"`
	Active  int  `json:"active"`
	Queued  int  `json:"queued"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	defer w.mu.RUnlock()

	health := Health{
		Running: w.running,
		Active:  w.active,
	}
	if w.queue != nil {
		health.Queued = len(w.queue)
	}
	return health
}
