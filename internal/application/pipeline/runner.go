package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/porflow/porflow/internal/domain"
	"github.com/porflow/porflow/internal/ports"
	"go.uber.org/zap"
)

// EventTopic is the bus topic all workflow lifecycle events are published on.
const EventTopic = "workflow.events"

// Runner drives one instruction through the pipeline: structural validation,
// reserve check, mint stage, optional transfer stage. It produces exactly one
// WorkflowOutcome per run and holds no state across runs.
type Runner struct {
	reserves       ports.ReserveSource
	validator      *ReserveValidator
	mint           MintExecutor
	transfer       TransferExecutor
	events         ports.EventBus
	metrics        ports.MetricsCollector
	logger         *zap.Logger
	custodyAccount string
	decimals       int32
}

// NewRunner creates a pipeline runner.
func NewRunner(
	reserves ports.ReserveSource,
	validator *ReserveValidator,
	mint MintExecutor,
	transfer TransferExecutor,
	events ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	custodyAccount string,
	decimals int32,
) *Runner {
	return &Runner{
		reserves:       reserves,
		validator:      validator,
		mint:           mint,
		transfer:       transfer,
		events:         events,
		metrics:        metrics,
		logger:         logger,
		custodyAccount: custodyAccount,
		decimals:       decimals,
	}
}

// Run executes the pipeline for one instruction. All business failures are
// returned as outcome variants; a panic from a collaborator outside its
// documented contract is caught and surfaced as an internal-error outcome.
func (r *Runner) Run(ctx context.Context, workflowID string, instr *domain.Instruction) (outcome *domain.WorkflowOutcome) {
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("pipeline panicked",
				zap.String("workflow_id", workflowID),
				zap.Any("panic", p))
			outcome = r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
				TransactionID: instr.TransactionID,
				Status:        domain.OutcomeInternalError,
				Reason:        "unexpected internal fault",
			})
		}
	}()

	// 1. Structural validation; malformed input never reaches a stage.
	if err := instr.Validate(); err != nil {
		return r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
			TransactionID: instr.TransactionID,
			Status:        domain.OutcomeInvalidInstruction,
			Reason:        err.Error(),
		})
	}

	amount, err := domain.ParseAmount(instr.Amount, r.decimals)
	if err != nil {
		return r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
			TransactionID: instr.TransactionID,
			Status:        domain.OutcomeInvalidInstruction,
			Reason:        err.Error(),
		})
	}

	// 2. Minted value is staged at the custody account only when a
	// cross-chain leg follows.
	mintRecipient := instr.BeneficiaryAccount
	if instr.CrossChainEnabled() {
		mintRecipient = r.custodyAccount
	}

	// 3. Reserve check. The only point in the pipeline guaranteed
	// side-effect-free on failure.
	snapshot, err := r.reserves.Snapshot(ctx)
	if err != nil {
		r.logger.Error("failed to fetch reserve snapshot",
			zap.String("workflow_id", workflowID),
			zap.Error(err))
		return r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
			TransactionID: instr.TransactionID,
			Status:        domain.OutcomeInternalError,
			Reason:        "reserve snapshot unavailable",
		})
	}

	rejection, err := r.validator.Validate(ctx, snapshot, amount)
	if err != nil {
		r.logger.Error("reserve validation errored",
			zap.String("workflow_id", workflowID),
			zap.Error(err))
		return r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
			TransactionID: instr.TransactionID,
			Status:        domain.OutcomeInternalError,
			Reason:        "reserve validation unavailable",
		})
	}
	if rejection != nil {
		r.metrics.RecordReserveCheck("rejected")
		r.publishEvent(ctx, workflowID, domain.EventTypeReserveChecked, map[string]interface{}{
			"decision":  "rejected",
			"available": rejection.Available,
			"requested": rejection.Requested,
		})
		return r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
			TransactionID: instr.TransactionID,
			Status:        domain.OutcomeReserveRejected,
			Reserve:       rejection,
		})
	}
	r.metrics.RecordReserveCheck("approved")
	r.publishEvent(ctx, workflowID, domain.EventTypeReserveChecked, map[string]interface{}{
		"decision": "approved",
	})

	// 4. Mint stage. The policy check always evaluates the original
	// beneficiary, even when funds are staged at the custody account.
	mintResult, err := r.mint.Run(ctx, instr.BeneficiaryAccount, mintRecipient, amount, instr.BankReference)
	if err != nil {
		return r.finish(ctx, workflowID, start, r.stageFailure(instr.TransactionID, err,
			domain.OutcomeMintRejectedByPolicy, domain.OutcomeMintFailed, ""))
	}
	r.publishEvent(ctx, workflowID, domain.EventTypeMintCompleted, map[string]interface{}{
		"reference": mintResult.Reference,
	})

	// 5. No cross-chain leg: done.
	if !instr.CrossChainEnabled() {
		return r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
			TransactionID: instr.TransactionID,
			Status:        domain.OutcomeCompleted,
			MintReference: mintResult.Reference,
		})
	}

	// 6. Transfer stage. Funds are already custodied; a failure here is
	// reported with the mint reference intact and is never rolled back.
	transferResult, err := r.transfer.Run(ctx, mintRecipient, instr.CrossChain.DestinationBeneficiary,
		instr.CrossChain.DestinationChainID, amount, instr.BankReference)
	if err != nil {
		return r.finish(ctx, workflowID, start, r.stageFailure(instr.TransactionID, err,
			domain.OutcomeTransferRejectedByPolicy, domain.OutcomeTransferFailed, mintResult.Reference))
	}
	r.publishEvent(ctx, workflowID, domain.EventTypeTransferCompleted, map[string]interface{}{
		"reference": transferResult.Reference,
	})

	// 7. Full completion.
	return r.finish(ctx, workflowID, start, &domain.WorkflowOutcome{
		TransactionID:     instr.TransactionID,
		Status:            domain.OutcomeCompleted,
		MintReference:     mintResult.Reference,
		TransferReference: transferResult.Reference,
	})
}

// stageFailure maps a stage error to its outcome variant, carrying through
// the mint reference for transfer-leg failures.
func (r *Runner) stageFailure(transactionID string, err error, policyOutcome, transportOutcome domain.OutcomeStatus, mintReference string) *domain.WorkflowOutcome {
	outcome := &domain.WorkflowOutcome{
		TransactionID: transactionID,
		MintReference: mintReference,
	}

	var policyErr *domain.PolicyRejectedError
	var transportErr *domain.TransportError
	switch {
	case errors.As(err, &policyErr):
		outcome.Status = policyOutcome
		outcome.PolicyIdentity = policyErr.Identity
		outcome.Reason = policyErr.Message
	case errors.As(err, &transportErr):
		outcome.Status = transportOutcome
		outcome.Reason = transportErr.Message
	default:
		outcome.Status = domain.OutcomeInternalError
		outcome.Reason = err.Error()
	}

	return outcome
}

// finish stamps the outcome, records metrics and publishes the terminal
// event.
func (r *Runner) finish(ctx context.Context, workflowID string, start time.Time, outcome *domain.WorkflowOutcome) *domain.WorkflowOutcome {
	outcome.CompletedAt = time.Now()

	duration := time.Since(start)
	r.metrics.RecordWorkflowCompleted(string(outcome.Status), duration)

	eventType := domain.EventTypeWorkflowCompleted
	if outcome.Status != domain.OutcomeCompleted {
		eventType = domain.EventTypeWorkflowFailed
	}
	r.publishEvent(ctx, workflowID, eventType, map[string]interface{}{
		"status":             string(outcome.Status),
		"mint_reference":     outcome.MintReference,
		"transfer_reference": outcome.TransferReference,
		"partial_completion": outcome.PartialCompletion(),
	})

	r.logger.Info("workflow finished",
		zap.String("workflow_id", workflowID),
		zap.String("transaction_id", outcome.TransactionID),
		zap.String("status", string(outcome.Status)),
		zap.Bool("partial_completion", outcome.PartialCompletion()),
		zap.Duration("duration", duration))

	return outcome
}

// publishEvent publishes a workflow event to the event bus.
func (r *Runner) publishEvent(ctx context.Context, workflowID string, eventType domain.EventType, data map[string]interface{}) {
	event := &domain.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		WorkflowID: workflowID,
		Timestamp:  time.Now(),
		Data:       data,
	}

	if err := r.events.Publish(ctx, EventTopic, event); err != nil {
		r.logger.Error("failed to publish event",
			zap.String("workflow_id", workflowID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
