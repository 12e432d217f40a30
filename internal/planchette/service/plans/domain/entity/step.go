package entity

import "time"

// StepStatus represents the lifecycle state of a single plan step.
//
// State machine: Pending|Ready → Running → Completed | Failed
// A step's status only advances; a completed step is never re-executed.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusReady     StepStatus = "ready"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// IsTerminal returns true once the step has settled.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed
}

// Step is one planned tool invocation within a run. Its ID doubles as the
// dependency-reference key for placeholder expressions in later steps.
type Step struct {
	// ID is unique within the run.
	ID string `json:"id"`

	// Call is the tool invocation to dispatch.
	Call ToolCall `json:"call"`

	// Status is the current lifecycle state.
	Status StepStatus `json:"status"`

	// Result is populated exactly once when the step settles.
	Result *ToolResult `json:"result,omitempty"`

	// StartedAt is when execution of this step began.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt is when this step settled.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ToolCall describes the tool invocation of a step.
type ToolCall struct {
	// ID is the correlation identifier handed to the dispatcher.
	ID string `json:"id"`

	// Name is the tool to invoke.
	Name string `json:"name"`

	// Arguments is the argument tree. Values may contain placeholder
	// expressions referencing earlier steps until the resolver runs.
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResultStatus is the outcome class of a dispatched call.
type ToolResultStatus string

const (
	ToolResultSuccess ToolResultStatus = "success"
	ToolResultFailed  ToolResultStatus = "failed"
)

// ToolResult is the outcome of one dispatched call. Produced exactly once
// per step and immutable thereafter.
type ToolResult struct {
	// Status classifies the outcome.
	Status ToolResultStatus `json:"status"`

	// Name is the tool that was invoked.
	Name string `json:"name"`

	// Payload is the opaque structured data returned by the tool.
	Payload interface{} `json:"payload,omitempty"`

	// Error is the error message if the call failed.
	Error string `json:"error,omitempty"`

	// ErrorDetail carries provider-specific error structure, preserved
	// verbatim for diagnostics.
	ErrorDetail map[string]interface{} `json:"error_detail,omitempty"`
}
