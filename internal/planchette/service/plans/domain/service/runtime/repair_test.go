package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepairReturnsCorrectedArgs(t *testing.T) {
	completer := &fakeCompleter{
		responses: []map[string]interface{}{
			{"correctedArgs": map[string]interface{}{"to": "ada@acme.io", "subject": "Hello"}},
		},
	}
	r := NewRepairCoordinator(completer, newTestRegistry(t), nil)

	run := newTestRun(pendingStep("step1", "send_email", nil))
	corrected, err := r.Repair(context.Background(), run, run.Steps[0],
		map[string]interface{}{"to": "ada@acme.io"}, "missing subject")

	require.NoError(t, err)
	require.Equal(t, "Hello", corrected["subject"])
	require.Equal(t, 1, completer.calls)
}

func TestRepairAcceptsBareArgumentObject(t *testing.T) {
	completer := &fakeCompleter{
		responses: []map[string]interface{}{
			{"to": "ada@acme.io", "subject": "Hello"},
		},
	}
	r := NewRepairCoordinator(completer, newTestRegistry(t), nil)

	run := newTestRun(pendingStep("step1", "send_email", nil))
	corrected, err := r.Repair(context.Background(), run, run.Steps[0],
		map[string]interface{}{}, "missing fields")

	require.NoError(t, err)
	require.Equal(t, "ada@acme.io", corrected["to"])
}

func TestRepairRejectsWrapperOfWrongType(t *testing.T) {
	completer := &fakeCompleter{
		responses: []map[string]interface{}{
			{"correctedArgs": "not an object"},
		},
	}
	r := NewRepairCoordinator(completer, newTestRegistry(t), nil)

	run := newTestRun(pendingStep("step1", "send_email", nil))
	_, err := r.Repair(context.Background(), run, run.Steps[0], map[string]interface{}{}, "bad")
	require.Error(t, err)
}

func TestRepairPropagatesCompletionFailure(t *testing.T) {
	completer := &fakeCompleter{errs: []error{errors.New("model unavailable")}}
	r := NewRepairCoordinator(completer, newTestRegistry(t), nil)

	run := newTestRun(pendingStep("step1", "send_email", nil))
	_, err := r.Repair(context.Background(), run, run.Steps[0], map[string]interface{}{}, "bad")
	require.Error(t, err)
	require.Contains(t, err.Error(), "model unavailable")
}

func TestRepairWithoutCompleter(t *testing.T) {
	r := NewRepairCoordinator(nil, newTestRegistry(t), nil)

	run := newTestRun(pendingStep("step1", "send_email", nil))
	_, err := r.Repair(context.Background(), run, run.Steps[0], map[string]interface{}{}, "bad")
	require.Error(t, err)
}

func TestRepairPromptCarriesContext(t *testing.T) {
	completer := &fakeCompleter{
		responses: []map[string]interface{}{
			{"correctedArgs": map[string]interface{}{}},
		},
	}
	r := NewRepairCoordinator(completer, newTestRegistry(t), nil)

	prior := completedStep("step1", "fetch_crm_records", map[string]interface{}{"email": "ada@acme.io"})
	step := pendingStep("step2", "send_email", nil)
	run := newTestRun(prior, step)

	_, err := r.Repair(context.Background(), run, step,
		map[string]interface{}{"to": float64(7)}, "to: expected string")
	require.NoError(t, err)

	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	require.Contains(t, prompt, run.Request)
	require.Contains(t, prompt, "ada@acme.io")
	require.Contains(t, prompt, "to: expected string")
	require.Contains(t, prompt, `"required"`)
}
