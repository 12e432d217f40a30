package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
)

func newDispatchRequest(name string, args map[string]interface{}) *DispatchRequest {
	return &DispatchRequest{
		SessionID: "sess-1",
		UserID:    "user-1",
		PlanID:    "run-1",
		StepID:    "step-1",
		Call:      entity.ToolCall{Name: name, Arguments: args},
	}
}

func TestDispatcherExecuteSuccess(t *testing.T) {
	r := NewRegistry(nil)
	inv := &stubInvokable{name: "ping", output: `{"latency_ms": 12}`}
	require.NoError(t, r.Register(&Definition{Name: "ping", Invokable: inv}))

	d := NewDispatcher(r, nil)
	result, err := d.Execute(context.Background(), newDispatchRequest("ping", map[string]interface{}{"target": "acme.io"}))
	require.NoError(t, err)
	require.Equal(t, entity.ToolResultSuccess, result.Status)
	require.Equal(t, "ping", result.Name)

	payload, ok := result.Payload.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(12), payload["latency_ms"])
	require.JSONEq(t, `{"target": "acme.io"}`, inv.lastArgs)
}

func TestDispatcherToolFailureBecomesFailedResult(t *testing.T) {
	r := NewRegistry(nil)
	inv := &stubInvokable{name: "ping", err: errors.New("host unreachable")}
	require.NoError(t, r.Register(&Definition{Name: "ping", Invokable: inv}))

	d := NewDispatcher(r, nil)
	result, err := d.Execute(context.Background(), newDispatchRequest("ping", nil))
	require.NoError(t, err)
	require.Equal(t, entity.ToolResultFailed, result.Status)
	require.Equal(t, "host unreachable", result.Error)
}

func TestDispatcherUnknownToolIsDispatcherFault(t *testing.T) {
	d := NewDispatcher(NewRegistry(nil), nil)
	result, err := d.Execute(context.Background(), newDispatchRequest("missing", nil))
	require.ErrorIs(t, err, errno.ErrToolNotFound)
	require.Nil(t, result)
}

func TestDispatcherKeepsNonJSONOutputAsString(t *testing.T) {
	r := NewRegistry(nil)
	inv := &stubInvokable{name: "ping", output: "pong"}
	require.NoError(t, r.Register(&Definition{Name: "ping", Invokable: inv}))

	d := NewDispatcher(r, nil)
	result, err := d.Execute(context.Background(), newDispatchRequest("ping", nil))
	require.NoError(t, err)
	require.Equal(t, entity.ToolResultSuccess, result.Status)
	require.Equal(t, "pong", result.Payload)
}
