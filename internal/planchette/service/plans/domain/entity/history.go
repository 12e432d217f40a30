package entity

import "time"

// HistoryRecord is one user-visible tool-call entry in the append-only
// history log. The log is bounded per user with ring-buffer semantics, so
// no stable absolute indexing is guaranteed.
type HistoryRecord struct {
	// ID is the record identifier returned on append.
	ID string `json:"id"`

	// UserID keys the per-user ring buffer.
	UserID string `json:"user_id"`

	// SessionID is the session the call belonged to.
	SessionID string `json:"session_id"`

	// ToolName is the tool that was invoked.
	ToolName string `json:"tool_name"`

	// Summary is the short human-readable description of the call.
	Summary string `json:"summary"`

	// Arguments is the argument tree the call was dispatched with.
	Arguments map[string]interface{} `json:"arguments,omitempty"`

	// Result is the tool's payload (or error detail for failed calls).
	Result interface{} `json:"result,omitempty"`

	// Status is "success" or "failed".
	Status string `json:"status"`

	// StepID and PlanID correlate the record back to its run.
	StepID string `json:"step_id"`
	PlanID string `json:"plan_id"`

	// PlanStatus is updated when the owning plan settles.
	PlanStatus string `json:"plan_status,omitempty"`

	// CreatedAt is when the record was appended.
	CreatedAt time.Time `json:"created_at"`
}
