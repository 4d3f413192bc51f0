package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/porflow/porflow/internal/application/pipeline"
	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"go.uber.org/zap"
)

// Pool manages the goroutines that execute asynchronously submitted
// workflows. Each worker consumes submission events from the bus and drives
// one instruction at a time through the pipeline; instructions never share
// state, so workers need no coordination beyond the submitted-status check.
type Pool struct {
	size    int
	events  ports.EventBus
	manager *pipeline.Manager
	metrics ports.MetricsCollector
	logger  *zap.Logger
	health  *HealthMonitor

	workers []*worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// worker represents a single worker goroutine.
type worker struct {
	id      string
	pool    *Pool
	status  WorkerStatus
	mu      sync.RWMutex
	lastJob time.Time
}

// WorkerStatus represents worker status.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBusy    WorkerStatus = "busy"
	WorkerStatusStopped WorkerStatus = "stopped"
)

// NewPool creates a new worker pool.
func NewPool(
	size int,
	events ports.EventBus,
	manager *pipeline.Manager,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	healthCheckInterval time.Duration,
) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		size:    size,
		events:  events,
		manager: manager,
		metrics: metrics,
		logger:  logger,
		workers: make([]*worker, size),
		ctx:     ctx,
		cancel:  cancel,
	}

	pool.health = NewHealthMonitor(pool, healthCheckInterval, logger)

	return pool
}

// Start starts the worker pool. Subscriptions are registered before Start
// returns, so a submission published right after startup is never missed.
func (p *Pool) Start() error {
	p.logger.Info("starting worker pool", zap.Int("size", p.size))

	for i := 0; i < p.size; i++ {
		w := &worker{
			id:      fmt.Sprintf("worker-%d", i),
			pool:    p,
			status:  WorkerStatusIdle,
			lastJob: time.Now(),
		}
		p.workers[i] = w

		if err := w.subscribe(p.ctx); err != nil {
			return fmt.Errorf("failed to subscribe worker %s: %w", w.id, err)
		}

		p.wg.Add(1)
		go w.run(p.ctx)
	}

	p.health.Start()

	p.logger.Info("worker pool started", zap.Int("workers", p.size))
	return nil
}

// Shutdown gracefully shuts down the worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.logger.Info("shutting down worker pool")

	p.health.Stop()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shut down complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout")
	}
}

// GetStatus returns the status of all workers.
func (p *Pool) GetStatus() map[string]WorkerStatus {
	status := make(map[string]WorkerStatus)
	for _, w := range p.workers {
		w.mu.RLock()
		status[w.id] = w.status
		w.mu.RUnlock()
	}
	return status
}

// subscribe registers the worker's event handler on the bus.
func (w *worker) subscribe(ctx context.Context) error {
	eventHandler := func(ctx context.Context, event *domain.Event) error {
		if event.Type != domain.EventTypeInstructionSubmitted {
			return nil
		}
		// The publisher's context ends with its caller, typically the
		// moment the submit response is written. Accepted work runs
		// under the pool's lifetime instead.
		go w.handleSubmission(w.pool.ctx, event)
		return nil
	}

	return w.pool.events.Subscribe(ctx, pipeline.EventTopic, eventHandler)
}

// run keeps the worker registered until the pool shuts down.
func (w *worker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	w.pool.logger.Info("worker started", zap.String("worker_id", w.id))

	<-ctx.Done()
	w.mu.Lock()
	w.status = WorkerStatusStopped
	w.mu.Unlock()
	w.pool.logger.Info("worker stopped", zap.String("worker_id", w.id))
}

// handleSubmission executes one submitted workflow.
func (w *worker) handleSubmission(ctx context.Context, event *domain.Event) {
	w.mu.Lock()
	w.status = WorkerStatusBusy
	w.lastJob = time.Now()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.status = WorkerStatusIdle
		w.mu.Unlock()
	}()

	workflowID := event.WorkflowID

	// The claim is an atomic submitted-to-running transition, so when the
	// bus fans an event out to several consumers only one of them runs.
	state, claimed, err := w.pool.manager.ClaimRun(ctx, workflowID)
	if err != nil {
		w.pool.logger.Error("failed to claim workflow run",
			zap.String("worker_id", w.id),
			zap.String("workflow_id", workflowID),
			zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	w.pool.logger.Info("executing workflow",
		zap.String("worker_id", w.id),
		zap.String("workflow_id", workflowID),
		zap.String("transaction_id", state.Instruction.TransactionID))

	runCtx, cancel := context.WithTimeout(ctx, w.pool.manager.WorkflowTimeout())
	defer cancel()

	outcome := w.pool.manager.Runner().Run(runCtx, workflowID, state.Instruction)

	if _, err := w.pool.manager.Complete(ctx, state, outcome); err != nil {
		w.pool.logger.Error("failed to persist outcome",
			zap.String("worker_id", w.id),
			zap.String("workflow_id", workflowID),
			zap.Error(err))
		return
	}

	w.pool.logger.Info("workflow execution completed",
		zap.String("worker_id", w.id),
		zap.String("workflow_id", workflowID),
		zap.String("status", string(outcome.Status)))
}
