package runtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
)

// fakeSink collects every event sent through it.
type fakeSink struct {
	events []*entity.PlanEvent
}

func (s *fakeSink) Send(ev *entity.PlanEvent) { s.events = append(s.events, ev) }

// segmentTexts returns the STREAMING segment texts in order.
func (s *fakeSink) segmentTexts() []string {
	var out []string
	for _, ev := range s.events {
		if ev.Type == entity.EventSegment && ev.SegmentStatus == entity.SegmentStreaming {
			out = append(out, ev.Segment)
		}
	}
	return out
}

// finalErrors returns the error events flagged as final.
func (s *fakeSink) finalErrors() []*entity.PlanEvent {
	var out []*entity.PlanEvent
	for _, ev := range s.events {
		if ev.Type == entity.EventError && ev.Final {
			out = append(out, ev)
		}
	}
	return out
}

// fakeCompleter replays canned JSON responses in order.
type fakeCompleter struct {
	responses []map[string]interface{}
	errs      []error
	calls     int
	prompts   []string
}

func (c *fakeCompleter) CompleteJSON(ctx context.Context, system, prompt string) (map[string]interface{}, error) {
	i := c.calls
	c.calls++
	c.prompts = append(c.prompts, prompt)
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return nil, fmt.Errorf("unexpected completion call %d", i)
}

// fakeDispatcher returns canned results per tool name.
type fakeDispatcher struct {
	results map[string]*entity.ToolResult
	err     error
	calls   []string
	args    []map[string]interface{}
}

func (d *fakeDispatcher) Execute(ctx context.Context, req *tools.DispatchRequest) (*entity.ToolResult, error) {
	d.calls = append(d.calls, req.Call.Name)
	d.args = append(d.args, req.Call.Arguments)
	if d.err != nil {
		return nil, d.err
	}
	if res, ok := d.results[req.Call.Name]; ok {
		return res, nil
	}
	return &entity.ToolResult{Status: entity.ToolResultSuccess, Name: req.Call.Name, Payload: map[string]interface{}{"ok": true}}, nil
}

// panicDispatcher panics on every call.
type panicDispatcher struct{}

func (panicDispatcher) Execute(ctx context.Context, req *tools.DispatchRequest) (*entity.ToolResult, error) {
	panic("boom")
}

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry(nil)
	err := registry.Register(&tools.Definition{
		Name:        "send_email",
		Description: "Send an email to a single recipient.",
		Schema: []byte(`{
			"type": "object",
			"properties": {
				"to": {"type": "string"},
				"subject": {"type": "string"},
				"body": {"type": "string"}
			},
			"required": ["to", "subject"],
			"additionalProperties": false
		}`),
		Source: "builtin",
	})
	require.NoError(t, err)
	return registry
}

func newTestRun(steps ...*entity.Step) *entity.Run {
	return &entity.Run{
		ID:        "run-1",
		SessionID: "sess-1",
		UserID:    "user-1",
		Request:   "email the top Acme contact",
		Steps:     steps,
		Status:    entity.RunStatusCreated,
	}
}

func pendingStep(id, toolName string, args map[string]interface{}) *entity.Step {
	return &entity.Step{
		ID:     id,
		Call:   entity.ToolCall{ID: "call-" + id, Name: toolName, Arguments: args},
		Status: entity.StepStatusPending,
	}
}

func completedStep(id, toolName string, payload interface{}) *entity.Step {
	return &entity.Step{
		ID:     id,
		Call:   entity.ToolCall{ID: "call-" + id, Name: toolName, Arguments: map[string]interface{}{}},
		Status: entity.StepStatusCompleted,
		Result: &entity.ToolResult{
			Status:  entity.ToolResultSuccess,
			Name:    toolName,
			Payload: payload,
		},
	}
}
