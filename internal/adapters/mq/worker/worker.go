// Package worker drains the snapshot queue and persists snapshots to the
// configured store. Save failures are logged and counted, never propagated:
// a broken database must not take down shadow computation.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cityscale/shadowcast/internal/adapters/repository"
	"github.com/cityscale/shadowcast/internal/domain/model"
	"github.com/cityscale/shadowcast/pkg/logger"
	"github.com/cityscale/shadowcast/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	defaultSaveTimeout    = 15 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Snapshot abstracts what workers read off the queue.
type Snapshot = model.Snapshot

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Snapshot
}

// Worker persists snapshots read from the queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// PersistWorker implements Worker on top of a repository.Store.
type PersistWorker struct {
	queue       Queue
	store       repository.Store
	name        string
	saveTimeout time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewPersistWorker creates a new worker with configuration options.
func NewPersistWorker(queue Queue, store repository.Store, opts ...Option) *PersistWorker {
	w := &PersistWorker{
		queue:       queue,
		store:       store,
		name:        "worker", // default name
		saveTimeout: defaultSaveTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *PersistWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	snapChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case snap, ok := <-snapChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Persist the snapshot; failures are terminal for the
			// snapshot but not for the worker.
			if err := w.persist(ctx, snap); err != nil {
				w.logger.Error(ctx, "snapshot save failed",
					logger.String("snapshotID", snap.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *PersistWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// persist handles a single snapshot.
func (w *PersistWorker) persist(ctx context.Context, snap Snapshot) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	saveCtx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()

	saveStart := time.Now()
	err := w.store.Save(saveCtx, snap)
	metrics.RecordStoreSaveDuration(float64(time.Since(saveStart).Milliseconds()))

	if err != nil {
		metrics.RecordStoreSaveError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "save_error")
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}

	metrics.RecordStoreSave()
	return nil
}

// Pool manages multiple persist workers.
type Pool struct {
	workers []*PersistWorker
	queue   Queue
	store   repository.Store

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, store repository.Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*PersistWorker, workerCount),
		queue:    queue,
		store:    store,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewPersistWorker(
			queue,
			store,
			append(opts, WithName("worker-"+strconv.Itoa(i)))...,
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)
	for _, worker := range p.workers {
		close(worker.shutdown)
	}

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}

	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown gracefully shuts down the entire worker pool. The queue is closed
// first so workers drain whatever is still buffered before stopping.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new snapshots
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)
	return nil
}
