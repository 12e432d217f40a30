package service

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

// ExecuteRequest is the input to PlanService.ExecutePlan.
type ExecuteRequest struct {
	// SessionID is the session to use (optional; creates new if empty).
	SessionID string

	// UserID is the requesting user identity.
	UserID string

	// Request is the free-text user request to plan and execute.
	Request string
}

// PlanService is the application-level service interface for plan
// execution and inspection.
type PlanService interface {
	// --- Plan Execution ---

	// ExecutePlan turns the request into a plan, starts executing it, and
	// returns a streaming event reader. Events are consumed via sr.Recv()
	// until io.EOF is received.
	ExecutePlan(ctx context.Context, req *ExecuteRequest) (*schema.StreamReader[*entity.PlanEvent], error)

	// ResumeRun re-drives a non-terminal run. Steps already completed are
	// not re-dispatched; their narration replays for continuity.
	ResumeRun(ctx context.Context, runID string) (*schema.StreamReader[*entity.PlanEvent], error)

	// --- Run Inspection ---

	GetRun(ctx context.Context, id string) (*entity.Run, error)
	ListRunsBySession(ctx context.Context, sessionID string) ([]*entity.Run, error)

	// --- Session Management ---

	GetSession(ctx context.Context, id string) (*entity.Session, error)
	ListSessionsByUser(ctx context.Context, userID string) ([]*entity.Session, error)
	DeleteSession(ctx context.Context, id string) error

	// --- History ---

	ListHistory(ctx context.Context, userID string) ([]*entity.HistoryRecord, error)
}
