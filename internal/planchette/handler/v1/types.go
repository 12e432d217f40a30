package v1

import (
	"time"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

// --- Plan execution ---

// ExecutePlanRequest is the request body for POST /v1/plans.
type ExecutePlanRequest struct {
	// Request is the free-text user request to plan and execute.
	Request string `json:"request" binding:"required"`

	// SessionID continues an existing session (optional).
	SessionID string `json:"session_id,omitempty"`

	// UserID identifies the requesting user.
	UserID string `json:"user_id,omitempty"`
}

// --- Run inspection ---

// RunResponse is the response shape for run endpoints.
type RunResponse struct {
	ID          string           `json:"id"`
	SessionID   string           `json:"session_id"`
	UserID      string           `json:"user_id"`
	Request     string           `json:"request"`
	Status      string           `json:"status"`
	Steps       []StepResponse   `json:"steps"`
	Error       *entity.RunError `json:"error,omitempty"`
	CreatedAt   string           `json:"created_at"`
	CompletedAt string           `json:"completed_at,omitempty"`
}

// StepResponse is one step of a RunResponse.
type StepResponse struct {
	ID        string                 `json:"id"`
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
	Status    string                 `json:"status"`
	Result    *entity.ToolResult     `json:"result,omitempty"`
}

func toRunResponse(r *entity.Run) RunResponse {
	resp := RunResponse{
		ID:        r.ID,
		SessionID: r.SessionID,
		UserID:    r.UserID,
		Request:   r.Request,
		Status:    string(r.Status),
		Steps:     make([]StepResponse, 0, len(r.Steps)),
		Error:     r.Error,
		CreatedAt: FormatTime(r.CreatedAt),
	}
	if r.CompletedAt != nil {
		resp.CompletedAt = FormatTime(*r.CompletedAt)
	}
	for _, s := range r.Steps {
		resp.Steps = append(resp.Steps, StepResponse{
			ID:        s.ID,
			Tool:      s.Call.Name,
			Arguments: s.Call.Arguments,
			Status:    string(s.Status),
			Result:    s.Result,
		})
	}
	return resp
}

// --- Sessions ---

// SessionResponse is the response for session endpoints.
type SessionResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

func toSessionResponse(s *entity.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Metadata:  s.Metadata,
		CreatedAt: FormatTime(s.CreatedAt),
		UpdatedAt: FormatTime(s.UpdatedAt),
	}
}

// --- History ---

// HistoryRecordResponse is one entry of the history listing.
type HistoryRecordResponse struct {
	ID         string                 `json:"id"`
	SessionID  string                 `json:"session_id"`
	ToolName   string                 `json:"tool_name"`
	Summary    string                 `json:"summary"`
	Arguments  map[string]interface{} `json:"arguments,omitempty"`
	Result     interface{}            `json:"result,omitempty"`
	Status     string                 `json:"status"`
	StepID     string                 `json:"step_id"`
	PlanID     string                 `json:"plan_id"`
	PlanStatus string                 `json:"plan_status,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}

func toHistoryResponse(r *entity.HistoryRecord) HistoryRecordResponse {
	return HistoryRecordResponse{
		ID:         r.ID,
		SessionID:  r.SessionID,
		ToolName:   r.ToolName,
		Summary:    r.Summary,
		Arguments:  r.Arguments,
		Result:     r.Result,
		Status:     r.Status,
		StepID:     r.StepID,
		PlanID:     r.PlanID,
		PlanStatus: r.PlanStatus,
		CreatedAt:  FormatTime(r.CreatedAt),
	}
}

// --- Tools ---

// ToolResponse describes one registered tool.
type ToolResponse struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Source      string      `json:"source"`
	Schema      interface{} `json:"schema,omitempty"`
}

// --- Common ---

const timeFormat = time.RFC3339

// FormatTime formats a time value for API responses.
func FormatTime(t time.Time) string {
	return t.Format(timeFormat)
}
