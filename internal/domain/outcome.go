package domain

import "time"

// StageResult is the successful result of one externally-effectful stage.
// Immutable after creation.
type StageResult struct {
	Reference string `json:"reference"`
}

// OutcomeStatus tags the terminal variant of a workflow run.
type OutcomeStatus string

const (
	OutcomeCompleted                OutcomeStatus = "completed"
	OutcomeInvalidInstruction       OutcomeStatus = "invalid_instruction"
	OutcomeReserveRejected          OutcomeStatus = "reserve_rejected"
	OutcomeMintRejectedByPolicy     OutcomeStatus = "mint_rejected_by_policy"
	OutcomeMintFailed               OutcomeStatus = "mint_failed"
	OutcomeTransferRejectedByPolicy OutcomeStatus = "transfer_rejected_by_policy"
	OutcomeTransferFailed           OutcomeStatus = "transfer_failed"
	OutcomeInternalError            OutcomeStatus = "internal_error"
)

// WorkflowOutcome is the single, immutable, externally observable result of
// one instruction run. Exactly one outcome is produced per instruction. A
// transfer-leg failure after a successful mint keeps the mint reference: the
// mint is never rolled back here, the outcome only reports precisely how far
// the pipeline got.
type WorkflowOutcome struct {
	TransactionID     string            `json:"transaction_id"`
	Status            OutcomeStatus     `json:"status"`
	MintReference     string            `json:"mint_reference,omitempty"`
	TransferReference string            `json:"transfer_reference,omitempty"`
	Reserve           *ReserveRejection `json:"reserve,omitempty"`
	PolicyIdentity    string            `json:"policy_identity,omitempty"`
	Reason            string            `json:"reason,omitempty"`
	CompletedAt       time.Time         `json:"completed_at"`
}

// PartialCompletion reports whether value was custodied but the final leg did
// not complete, which requires out-of-band remediation.
func (o *WorkflowOutcome) PartialCompletion() bool {
	return o.MintReference != "" &&
		(o.Status == OutcomeTransferRejectedByPolicy || o.Status == OutcomeTransferFailed)
}

// WorkflowStatus is the lifecycle status of an asynchronous run.
type WorkflowStatus string

const (
	WorkflowStatusSubmitted WorkflowStatus = "submitted"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

// WorkflowState is the persisted view of one instruction's run. The Outcome
// field is set exactly once, when the run reaches a terminal status.
type WorkflowState struct {
	WorkflowID  string           `json:"workflow_id"`
	Instruction *Instruction     `json:"instruction"`
	Status      WorkflowStatus   `json:"status"`
	Outcome     *WorkflowOutcome `json:"outcome,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Terminal reports whether the workflow has produced its outcome.
func (s *WorkflowState) Terminal() bool {
	return s.Status == WorkflowStatusCompleted || s.Status == WorkflowStatusFailed
}
