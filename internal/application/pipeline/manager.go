package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"go.uber.org/zap"
)

// ErrDuplicateTransaction is returned when an instruction's transaction ID is
// already bound to a workflow within the retention window.
var ErrDuplicateTransaction = errors.New("transaction already processed")

// Manager coordinates workflow submission and execution. Asynchronous
// submissions are handed to the worker pool through the event bus; the
// synchronous path runs the pipeline inline. Both paths persist their state
// through the same store, so a transaction ID is claimed exactly once either
// way.
type Manager struct {
	store   ports.OutcomeStore
	events  ports.EventBus
	metrics ports.MetricsCollector
	runner  *Runner
	logger  *zap.Logger

	workflowTimeout time.Duration
}

// NewManager creates a workflow manager.
func NewManager(
	store ports.OutcomeStore,
	events ports.EventBus,
	metrics ports.MetricsCollector,
	runner *Runner,
	logger *zap.Logger,
	workflowTimeout time.Duration,
) *Manager {
	return &Manager{
		store:           store,
		events:          events,
		metrics:         metrics,
		runner:          runner,
		logger:          logger,
		workflowTimeout: workflowTimeout,
	}
}

// Submit validates an instruction and queues it for asynchronous execution.
// A duplicate transaction ID returns the existing workflow state together
// with ErrDuplicateTransaction.
func (m *Manager) Submit(ctx context.Context, instr *domain.Instruction) (*domain.WorkflowState, error) {
	if err := m.checkInstruction(instr); err != nil {
		m.metrics.RecordInstructionSubmitted("rejected")
		return nil, err
	}

	workflowID := uuid.New().String()

	state, err := m.claim(ctx, instr, workflowID)
	if err != nil {
		return state, err
	}

	state = &domain.WorkflowState{
		WorkflowID:  workflowID,
		Instruction: instr,
		Status:      domain.WorkflowStatusSubmitted,
		SubmittedAt: time.Now(),
	}
	if err := m.store.SaveState(ctx, state); err != nil {
		m.logger.Error("failed to save initial state",
			zap.String("workflow_id", workflowID),
			zap.Error(err))
		m.releaseClaim(ctx, instr.TransactionID)
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	event := &domain.Event{
		ID:         uuid.New().String(),
		Type:       domain.EventTypeInstructionSubmitted,
		WorkflowID: workflowID,
		Timestamp:  time.Now(),
	}
	if err := m.events.Publish(ctx, EventTopic, event); err != nil {
		m.logger.Error("failed to publish submission event",
			zap.String("workflow_id", workflowID),
			zap.Error(err))
		m.releaseClaim(ctx, instr.TransactionID)
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	m.metrics.RecordInstructionSubmitted("accepted")
	m.logger.Info("instruction submitted",
		zap.String("workflow_id", workflowID),
		zap.String("transaction_id", instr.TransactionID),
		zap.Bool("cross_chain", instr.CrossChainEnabled()))

	return state, nil
}

// RunSync validates an instruction and runs the pipeline inline, returning
// the terminal state. Used by the synchronous API surface.
func (m *Manager) RunSync(ctx context.Context, instr *domain.Instruction) (*domain.WorkflowState, error) {
	if err := m.checkInstruction(instr); err != nil {
		m.metrics.RecordInstructionSubmitted("rejected")
		return nil, err
	}

	workflowID := uuid.New().String()

	state, err := m.claim(ctx, instr, workflowID)
	if err != nil {
		return state, err
	}

	now := time.Now()
	state = &domain.WorkflowState{
		WorkflowID:  workflowID,
		Instruction: instr,
		Status:      domain.WorkflowStatusRunning,
		SubmittedAt: now,
		StartedAt:   &now,
	}
	if err := m.store.SaveState(ctx, state); err != nil {
		m.releaseClaim(ctx, instr.TransactionID)
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	m.metrics.RecordInstructionSubmitted("accepted")

	runCtx, cancel := context.WithTimeout(ctx, m.workflowTimeout)
	defer cancel()

	outcome := m.runner.Run(runCtx, workflowID, instr)
	return m.Complete(ctx, state, outcome)
}

// Complete stamps a terminal outcome onto the state and persists it. Workers
// use this for asynchronous runs.
func (m *Manager) Complete(ctx context.Context, state *domain.WorkflowState, outcome *domain.WorkflowOutcome) (*domain.WorkflowState, error) {
	completed := time.Now()
	state.Outcome = outcome
	state.CompletedAt = &completed
	state.Status = domain.WorkflowStatusCompleted
	if outcome.Status != domain.OutcomeCompleted {
		state.Status = domain.WorkflowStatusFailed
	}

	if err := m.store.SaveState(ctx, state); err != nil {
		m.logger.Error("failed to save terminal state",
			zap.String("workflow_id", state.WorkflowID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	return state, nil
}

// GetState retrieves the current state of a workflow.
func (m *Manager) GetState(ctx context.Context, workflowID string) (*domain.WorkflowState, error) {
	return m.store.GetState(ctx, workflowID)
}

// ListStates returns all retained workflow states.
func (m *Manager) ListStates(ctx context.Context) ([]*domain.WorkflowState, error) {
	return m.store.ListStates(ctx)
}

// ClaimRun atomically takes ownership of a submitted workflow, moving it to
// running. claimed is false when another consumer got there first.
func (m *Manager) ClaimRun(ctx context.Context, workflowID string) (*domain.WorkflowState, bool, error) {
	return m.store.ClaimRun(ctx, workflowID)
}

// Runner exposes the pipeline runner for the worker pool.
func (m *Manager) Runner() *Runner {
	return m.runner
}

// WorkflowTimeout returns the per-run deadline.
func (m *Manager) WorkflowTimeout() time.Duration {
	return m.workflowTimeout
}

// checkInstruction runs structural validation plus amount parsing so that
// malformed input is rejected at the boundary, before any transaction ID is
// claimed.
func (m *Manager) checkInstruction(instr *domain.Instruction) error {
	if err := instr.Validate(); err != nil {
		return err
	}
	if _, err := domain.ParseAmount(instr.Amount, m.runner.decimals); err != nil {
		return err
	}
	return nil
}

// claim binds the transaction ID to the new workflow. On a duplicate it
// returns the previously bound workflow's state.
func (m *Manager) claim(ctx context.Context, instr *domain.Instruction, workflowID string) (*domain.WorkflowState, error) {
	existing, claimed, err := m.store.ClaimTransaction(ctx, instr.TransactionID, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim transaction: %w", err)
	}
	if claimed {
		return nil, nil
	}

	m.metrics.RecordInstructionSubmitted("duplicate")
	m.logger.Warn("duplicate transaction",
		zap.String("transaction_id", instr.TransactionID),
		zap.String("existing_workflow_id", existing))

	state, getErr := m.store.GetState(ctx, existing)
	if getErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, instr.TransactionID)
	}
	return state, ErrDuplicateTransaction
}

// releaseClaim frees a transaction claim after a submission failed before
// the pipeline could run, so a retry is not refused as a duplicate.
func (m *Manager) releaseClaim(ctx context.Context, transactionID string) {
	if err := m.store.ReleaseTransaction(ctx, transactionID); err != nil {
		m.logger.Error("failed to release transaction claim",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
	}
}
