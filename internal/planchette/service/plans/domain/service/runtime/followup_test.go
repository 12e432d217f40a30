package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBridgeReturnsSummaryAndNextArgs(t *testing.T) {
	completer := &fakeCompleter{
		responses: []map[string]interface{}{
			{
				"summary":          "Found Ada's contact details.",
				"nextToolCallArgs": map[string]interface{}{"to": "ada@acme.io", "subject": "Hello"},
			},
		},
	}
	f := NewFollowUpBridge(completer, newTestRegistry(t), nil)

	prior := completedStep("step1", "fetch_crm_records", map[string]interface{}{"email": "ada@acme.io"})
	next := pendingStep("step2", "send_email", nil)
	run := newTestRun(prior, next)

	summary, nextArgs := f.Bridge(context.Background(), run, 0, next)
	require.Equal(t, "Found Ada's contact details.", summary)
	require.Equal(t, "ada@acme.io", nextArgs["to"])
}

func TestBridgeFallsBackOnCompletionFailure(t *testing.T) {
	completer := &fakeCompleter{errs: []error{errors.New("model unavailable")}}
	f := NewFollowUpBridge(completer, newTestRegistry(t), nil)

	prior := completedStep("step1", "fetch_crm_records", map[string]interface{}{"email": "x"})
	next := pendingStep("step2", "send_email", nil)
	run := newTestRun(prior, next)

	summary, nextArgs := f.Bridge(context.Background(), run, 0, next)
	require.Equal(t, "Completed the fetch_crm_records step.", summary)
	require.Nil(t, nextArgs)
}

func TestBridgeFallsBackOnEmptySummary(t *testing.T) {
	completer := &fakeCompleter{
		responses: []map[string]interface{}{
			{"summary": "   ", "nextToolCallArgs": nil},
		},
	}
	f := NewFollowUpBridge(completer, newTestRegistry(t), nil)

	prior := completedStep("step1", "fetch_crm_records", map[string]interface{}{"email": "x"})
	next := pendingStep("step2", "send_email", nil)
	run := newTestRun(prior, next)

	summary, nextArgs := f.Bridge(context.Background(), run, 0, next)
	require.Equal(t, "Completed the fetch_crm_records step.", summary)
	require.Nil(t, nextArgs)
}

func TestBridgePriorIsStepAtBridgedIndex(t *testing.T) {
	completer := &fakeCompleter{
		responses: []map[string]interface{}{
			{"summary": "ok", "nextToolCallArgs": nil},
		},
	}
	f := NewFollowUpBridge(completer, newTestRegistry(t), nil)

	first := completedStep("step1", "fetch_crm_records", map[string]interface{}{"email": "first@acme.io"})
	second := completedStep("step2", "fetch_crm_records", map[string]interface{}{"email": "second@acme.io"})
	next := pendingStep("step3", "send_email", nil)
	run := newTestRun(first, second, next)

	// Bridging step1 must narrate from step1's result even though step2
	// settled later.
	_, _ = f.Bridge(context.Background(), run, 0, second)
	require.Len(t, completer.prompts, 1)
	require.Contains(t, completer.prompts[0], "first@acme.io")
	require.NotContains(t, completer.prompts[0], "second@acme.io")
}

func TestBridgeWithoutPriorStep(t *testing.T) {
	completer := &fakeCompleter{}
	f := NewFollowUpBridge(completer, newTestRegistry(t), nil)

	next := pendingStep("step1", "send_email", nil)
	run := newTestRun(next)

	summary, nextArgs := f.Bridge(context.Background(), run, 0, next)
	require.Empty(t, summary)
	require.Nil(t, nextArgs)
	require.Zero(t, completer.calls, "no completion without a prior result")
}

func TestBridgeWithoutCompleter(t *testing.T) {
	f := NewFollowUpBridge(nil, newTestRegistry(t), nil)

	prior := completedStep("step1", "fetch_crm_records", map[string]interface{}{"email": "x"})
	next := pendingStep("step2", "send_email", nil)
	run := newTestRun(prior, next)

	summary, nextArgs := f.Bridge(context.Background(), run, 0, next)
	require.Equal(t, "Completed the fetch_crm_records step.", summary)
	require.Nil(t, nextArgs)
}
