package domain

import "time"

// EventType identifies workflow lifecycle events published on the event bus.
type EventType string

const (
	EventTypeInstructionSubmitted EventType = "instruction.submitted"
	EventTypeReserveChecked       EventType = "reserve.checked"
	EventTypeMintCompleted        EventType = "mint.completed"
	EventTypeTransferCompleted    EventType = "transfer.completed"
	EventTypeWorkflowCompleted    EventType = "workflow.completed"
	EventTypeWorkflowFailed       EventType = "workflow.failed"
)

// Event is a workflow lifecycle event. WorkflowID ties the event to one
// instruction run.
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	WorkflowID string                 `json:"workflow_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Data       map[string]interface{} `json:"data,omitempty"`
}
