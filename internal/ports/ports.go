package ports

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/porflow/porflow/internal/domain"
)

// ErrStateNotFound is returned by OutcomeStore implementations when no state
// exists for a workflow ID.
var ErrStateNotFound = errors.New("workflow state not found")

// ReserveSource fetches a fresh proof-of-reserve snapshot. In demo mode this
// is a fixed configured value; in production it is a network call.
type ReserveSource interface {
	Snapshot(ctx context.Context) (*domain.ReserveSnapshot, error)
}

// SupplyReader reads the currently issued token supply in integer base units.
// Only consulted by the supply-aware reserve policy.
type SupplyReader interface {
	CurrentSupply(ctx context.Context) (*big.Int, error)
}

// SubmitStatus is the transaction-level status returned by the signed-report
// submission capability.
type SubmitStatus string

const (
	SubmitStatusSuccess SubmitStatus = "SUCCESS"
	SubmitStatusError   SubmitStatus = "ERROR"
)

// RejectCode is the machine-readable error code optionally carried by a
// submission receipt. Structured codes are preferred over parsing the
// human-readable message.
type RejectCode string

const (
	RejectCodeNone           RejectCode = ""
	RejectCodePolicyRejected RejectCode = "POLICY_REJECTED"
	RejectCodeTransport      RejectCode = "TRANSPORT_FAILED"
)

// SubmitReceipt is the tagged result of one signed-report submission.
type SubmitReceipt struct {
	Status    SubmitStatus
	Reference string
	Code      RejectCode
	Message   string
}

// ReportSubmitter delivers an encoded report payload to the signed-report
// submission capability. A transport-level failure is returned as an error;
// a delivered-but-rejected submission is returned as a receipt with a
// non-success status.
type ReportSubmitter interface {
	SubmitReport(ctx context.Context, payload []byte) (*SubmitReceipt, error)
}

// OutcomeStore persists workflow states and enforces transaction-ID
// uniqueness within the retention window.
type OutcomeStore interface {
	// SaveState persists the state, overwriting any previous version.
	SaveState(ctx context.Context, state *domain.WorkflowState) error

	// GetState retrieves the state for a workflow ID.
	GetState(ctx context.Context, workflowID string) (*domain.WorkflowState, error)

	// ClaimTransaction atomically binds a transaction ID to a workflow ID.
	// When the transaction ID is already bound, claimed is false and the
	// existing workflow ID is returned.
	ClaimTransaction(ctx context.Context, transactionID, workflowID string) (existing string, claimed bool, err error)

	// ReleaseTransaction removes a transaction-ID claim. Used when a
	// submission fails after the claim but before the pipeline could run.
	ReleaseTransaction(ctx context.Context, transactionID string) error

	// ClaimRun atomically transitions a submitted workflow to running and
	// returns the updated state. claimed is false when the workflow is no
	// longer in the submitted status, i.e. another consumer owns the run.
	ClaimRun(ctx context.Context, workflowID string) (state *domain.WorkflowState, claimed bool, err error)

	// ListStates returns all retained workflow states.
	ListStates(ctx context.Context) ([]*domain.WorkflowState, error)
}

// EventHandler processes one event from the bus.
type EventHandler func(ctx context.Context, event *domain.Event) error

// EventBus publishes and consumes workflow lifecycle events.
type EventBus interface {
	Publish(ctx context.Context, topic string, event *domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// MetricsCollector records operational metrics for the pipeline and the
// worker pool.
type MetricsCollector interface {
	RecordInstructionSubmitted(status string)
	RecordWorkflowCompleted(outcome string, duration time.Duration)
	RecordStageExecuted(stage, status string, duration time.Duration)
	RecordReserveCheck(decision string)
	RecordWorkerPoolStatus(idle, busy, stopped int)
}
