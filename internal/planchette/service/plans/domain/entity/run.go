package entity

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
)

// RunStatus represents the lifecycle state of a plan run.
//
// State machine: Created → Running → Completed | Failed
type RunStatus string

const (
	RunStatusCreated   RunStatus = "created"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal returns true if the run has reached a terminal state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Run is one end-to-end execution of a multi-step plan for a single user
// request. It is mutated exclusively by the execution engine driving it;
// everything leaving the engine (stream events) carries a Snapshot, never
// the live object.
type Run struct {
	// ID is the unique run identifier.
	ID string `json:"id"`

	// SessionID is the owning session.
	SessionID string `json:"session_id"`

	// UserID is the owning user identity.
	UserID string `json:"user_id"`

	// Request is the original free-text user request the plan was
	// generated from.
	Request string `json:"request"`

	// Steps is the ordered list of planned tool invocations.
	Steps []*Step `json:"steps"`

	// Status is the current lifecycle state.
	Status RunStatus `json:"status"`

	// Error holds error details if the run failed.
	Error *RunError `json:"error,omitempty"`

	// HistoryRecordID links the run to its History Store record, when one
	// has been written.
	HistoryRecordID string `json:"history_record_id,omitempty"`

	// CreatedAt is when this run was created.
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is when this run reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunError holds structured error information for a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RunError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// StepByID returns the step with the given identifier, or nil.
func (r *Run) StepByID(id string) *Step {
	for _, s := range r.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// LastSettledStep returns the most recently completed step that carries a
// result, scanning backwards from (but excluding) index before. A negative
// before scans the whole list.
func (r *Run) LastSettledStep(before int) *Step {
	if before < 0 || before > len(r.Steps) {
		before = len(r.Steps)
	}
	for i := before - 1; i >= 0; i-- {
		s := r.Steps[i]
		if s.Status == StepStatusCompleted && s.Result != nil {
			return s
		}
	}
	return nil
}

// Snapshot returns a deep copy of the run, safe to hand to another
// goroutine while the engine keeps mutating the original.
func (r *Run) Snapshot() *Run {
	var cp Run
	if err := copier.CopyWithOption(&cp, r, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on type mismatches, which cannot happen when
		// copying a value onto its own type.
		panic(fmt.Sprintf("run snapshot: %v", err))
	}
	return &cp
}
