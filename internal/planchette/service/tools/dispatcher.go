package tools

import (
	"context"
	"fmt"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// DispatchRequest carries one resolved, validated tool call plus its
// correlation identifiers.
type DispatchRequest struct {
	SessionID string
	UserID    string
	PlanID    string
	StepID    string
	Call      entity.ToolCall
}

// Dispatcher executes a single named tool call against its backing system.
// Implementations must be safe for concurrent use by multiple runs.
type Dispatcher interface {
	Execute(ctx context.Context, req *DispatchRequest) (*entity.ToolResult, error)
}

// registryDispatcher dispatches calls to invokables held by the Registry.
type registryDispatcher struct {
	registry *Registry
	log      logger.Logger
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, log logger.Logger) Dispatcher {
	if log == nil {
		log = logger.Default()
	}
	return &registryDispatcher{registry: registry, log: log}
}

// Execute looks up the tool, invokes it with the call's arguments as JSON,
// and wraps the outcome into a ToolResult. Invocation failures are
// reported through the result's failed status rather than the error
// return, which is reserved for dispatcher-level faults (unknown tool,
// unserializable arguments).
func (d *registryDispatcher) Execute(ctx context.Context, req *DispatchRequest) (*entity.ToolResult, error) {
	def, err := d.registry.Get(req.Call.Name)
	if err != nil {
		return nil, err
	}

	argsJSON, err := json.MarshalString(req.Call.Arguments)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments for tool %q: %w", req.Call.Name, err)
	}

	d.log.Infof("[Dispatcher] executing %s (plan=%s step=%s session=%s)",
		req.Call.Name, req.PlanID, req.StepID, req.SessionID)

	out, err := def.Invokable.InvokableRun(ctx, argsJSON)
	if err != nil {
		d.log.Warnf("[Dispatcher] %s failed (plan=%s step=%s): %v", req.Call.Name, req.PlanID, req.StepID, err)
		return &entity.ToolResult{
			Status: entity.ToolResultFailed,
			Name:   req.Call.Name,
			Error:  err.Error(),
		}, nil
	}

	// Tools return JSON text; keep non-JSON output as a plain string
	// payload rather than failing the call.
	var payload interface{}
	if uerr := json.UnmarshalString(out, &payload); uerr != nil {
		payload = out
	}

	return &entity.ToolResult{
		Status:  entity.ToolResultSuccess,
		Name:    req.Call.Name,
		Payload: payload,
	}, nil
}
