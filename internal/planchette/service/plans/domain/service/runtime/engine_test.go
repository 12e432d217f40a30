package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/internal/planchette/service/plans/store/inmemory"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
)

func registerFetchTool(t *testing.T, registry *tools.Registry) {
	t.Helper()
	err := registry.Register(&tools.Definition{
		Name:        "fetch_crm_records",
		Description: "Fetch CRM records of a given entity type.",
		Schema: []byte(`{
			"type": "object",
			"properties": {
				"entity": {"type": "string"},
				"name": {"type": "string"}
			},
			"required": ["entity"]
		}`),
		Source: "builtin",
	})
	require.NoError(t, err)
}

type engineFixture struct {
	engine    *Engine
	registry  *tools.Registry
	dispatch  *fakeDispatcher
	repair    *fakeCompleter
	runStore  *inmemory.RunStore
	history   *inmemory.HistoryStore
	validator Validator
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	registry := newTestRegistry(t)
	registerFetchTool(t, registry)

	f := &engineFixture{
		registry: registry,
		dispatch: &fakeDispatcher{results: map[string]*entity.ToolResult{}},
		repair:   &fakeCompleter{},
		runStore: inmemory.NewRunStore(),
		history:  inmemory.NewHistoryStore(10),
	}
	f.validator = NewSchemaValidator(registry, nil)
	f.engine = NewEngine(
		NewPlaceholderResolver(nil),
		f.validator,
		NewRepairCoordinator(f.repair, registry, nil),
		NewFollowUpBridge(nil, registry, nil),
		f.dispatch,
		f.runStore,
		f.history,
		nil,
	)
	return f
}

func (f *engineFixture) createRun(t *testing.T, run *entity.Run) {
	t.Helper()
	require.NoError(t, f.runStore.Create(context.Background(), run))
}

func TestExecuteHappyPath(t *testing.T) {
	f := newEngineFixture(t)
	f.dispatch.results["fetch_crm_records"] = &entity.ToolResult{
		Status: entity.ToolResultSuccess,
		Name:   "fetch_crm_records",
		Payload: map[string]interface{}{
			"records": []interface{}{
				map[string]interface{}{"email": "ada@acme.io"},
			},
		},
	}

	run := newTestRun(
		pendingStep("step1", "fetch_crm_records", map[string]interface{}{"entity": "contact", "name": "Acme"}),
		pendingStep("step2", "send_email", map[string]interface{}{
			"to":      "{{step1.records[0].email}}",
			"subject": "Hello",
		}),
	)
	f.createRun(t, run)

	sink := &fakeSink{}
	require.NoError(t, f.engine.Execute(context.Background(), run, sink))

	require.Equal(t, entity.RunStatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
	for _, step := range run.Steps {
		require.Equal(t, entity.StepStatusCompleted, step.Status)
		require.NotNil(t, step.Result)
	}

	// Steps dispatched strictly in plan order, with the placeholder
	// already resolved.
	require.Equal(t, []string{"fetch_crm_records", "send_email"}, f.dispatch.calls)
	require.Equal(t, "ada@acme.io", f.dispatch.args[1]["to"])

	require.Empty(t, sink.finalErrors())
	texts := sink.segmentTexts()
	require.Contains(t, texts, "Running fetch_crm_records as planned...")
	require.Contains(t, texts, "Running send_email using data from a previous step...")
	require.Contains(t, texts, "Completed the fetch_crm_records step.")

	// History carries one record per executed step, with the run's
	// terminal status settled on the first record.
	records, err := f.history.ListByUser(context.Background(), run.UserID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, run.HistoryRecordID, records[0].ID)
	require.Equal(t, string(entity.RunStatusCompleted), records[0].PlanStatus)

	persisted, err := f.runStore.Get(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RunStatusCompleted, persisted.Status)
}

func TestExecuteRejectsEmptyPlan(t *testing.T) {
	f := newEngineFixture(t)
	run := newTestRun()

	err := f.engine.Execute(context.Background(), run, &fakeSink{})
	require.ErrorIs(t, err, errno.ErrEmptyPlan)
}

func TestExecuteRejectsTerminalRun(t *testing.T) {
	f := newEngineFixture(t)
	run := newTestRun(pendingStep("step1", "send_email", nil))
	run.Status = entity.RunStatusCompleted

	err := f.engine.Execute(context.Background(), run, &fakeSink{})
	require.ErrorIs(t, err, errno.ErrRunAlreadyDone)
}

func TestExecuteRejectsConcurrentExecution(t *testing.T) {
	f := newEngineFixture(t)
	run := newTestRun(pendingStep("step1", "send_email", map[string]interface{}{
		"to": "a@b.c", "subject": "x",
	}))
	f.createRun(t, run)

	require.True(t, f.engine.acquire(run.ID))
	err := f.engine.Execute(context.Background(), run, &fakeSink{})
	require.ErrorIs(t, err, errno.ErrEngineBusy)
	f.engine.release(run.ID)

	require.NoError(t, f.engine.Execute(context.Background(), run, &fakeSink{}))
}

func TestExecuteFailFastHaltsRun(t *testing.T) {
	f := newEngineFixture(t)
	f.dispatch.results["fetch_crm_records"] = &entity.ToolResult{
		Status: entity.ToolResultFailed,
		Name:   "fetch_crm_records",
		Error:  "CRM unreachable",
	}

	run := newTestRun(
		pendingStep("step1", "fetch_crm_records", map[string]interface{}{"entity": "contact"}),
		pendingStep("step2", "send_email", map[string]interface{}{"to": "a@b.c", "subject": "x"}),
	)
	f.createRun(t, run)

	sink := &fakeSink{}
	err := f.engine.Execute(context.Background(), run, sink)
	require.Error(t, err)

	require.Equal(t, entity.RunStatusFailed, run.Status)
	require.NotNil(t, run.Error)
	require.Equal(t, FailureCodeDispatch, run.Error.Code)

	// The second step never ran.
	require.Equal(t, []string{"fetch_crm_records"}, f.dispatch.calls)
	require.Equal(t, entity.StepStatusPending, run.Steps[1].Status)

	// Exactly one terminal error event.
	finals := sink.finalErrors()
	require.Len(t, finals, 1)
	require.Contains(t, finals[0].Error, "CRM unreachable")

	require.Contains(t, sink.segmentTexts(), "The fetch_crm_records step failed: CRM unreachable")
}

func TestExecuteRepairsInvalidArguments(t *testing.T) {
	f := newEngineFixture(t)
	f.repair.responses = []map[string]interface{}{
		{"correctedArgs": map[string]interface{}{"to": "ada@acme.io", "subject": "Hello"}},
	}

	run := newTestRun(pendingStep("step1", "send_email", map[string]interface{}{
		"to": "ada@acme.io",
	}))
	f.createRun(t, run)

	require.NoError(t, f.engine.Execute(context.Background(), run, &fakeSink{}))

	require.Equal(t, entity.RunStatusCompleted, run.Status)
	require.Equal(t, 1, f.repair.calls)
	require.Equal(t, "Hello", f.dispatch.args[0]["subject"])
}

func TestExecuteRepairLimitedToOneAttempt(t *testing.T) {
	f := newEngineFixture(t)
	// The correction is still invalid; no second attempt happens.
	f.repair.responses = []map[string]interface{}{
		{"correctedArgs": map[string]interface{}{"to": "ada@acme.io"}},
	}

	run := newTestRun(pendingStep("step1", "send_email", map[string]interface{}{
		"to": "ada@acme.io",
	}))
	f.createRun(t, run)

	sink := &fakeSink{}
	err := f.engine.Execute(context.Background(), run, sink)
	require.ErrorIs(t, err, errno.ErrRepairExhausted)

	require.Equal(t, 1, f.repair.calls)
	require.Empty(t, f.dispatch.calls, "invalid step must not dispatch")
	require.Equal(t, entity.RunStatusFailed, run.Status)
	require.Equal(t, FailureCodeRepair, run.Error.Code)
	require.Len(t, sink.finalErrors(), 1)
}

func TestExecuteRepairCompletionFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.repair.errs = []error{errno.ErrNoCompletion}

	run := newTestRun(pendingStep("step1", "send_email", map[string]interface{}{
		"to": "ada@acme.io",
	}))
	f.createRun(t, run)

	err := f.engine.Execute(context.Background(), run, &fakeSink{})
	require.ErrorIs(t, err, errno.ErrRepairExhausted)
	require.Equal(t, FailureCodeValidation, run.Error.Code)
}

func TestExecuteResumeSkipsCompletedSteps(t *testing.T) {
	f := newEngineFixture(t)

	done := completedStep("step1", "fetch_crm_records", map[string]interface{}{
		"records": []interface{}{map[string]interface{}{"email": "ada@acme.io"}},
	})
	run := newTestRun(
		done,
		pendingStep("step2", "send_email", map[string]interface{}{
			"to":      "{{step1.records[0].email}}",
			"subject": "Hello",
		}),
	)
	run.Status = entity.RunStatusRunning
	f.createRun(t, run)

	sink := &fakeSink{}
	require.NoError(t, f.engine.Execute(context.Background(), run, sink))

	// Only the unfinished step dispatched; the completed step's narration
	// replayed for continuity.
	require.Equal(t, []string{"send_email"}, f.dispatch.calls)
	require.Equal(t, "ada@acme.io", f.dispatch.args[0]["to"])
	require.Contains(t, sink.segmentTexts(), "Finished fetch_crm_records.")
	require.Equal(t, entity.RunStatusCompleted, run.Status)
}

func TestExecuteFollowUpArgumentsOverrideNextStep(t *testing.T) {
	f := newEngineFixture(t)
	follow := &fakeCompleter{
		responses: []map[string]interface{}{
			{
				"summary":          "Fetched Ada's details.",
				"nextToolCallArgs": map[string]interface{}{"to": "ada@acme.io", "subject": "Follow up"},
			},
		},
	}
	f.engine.followUp = NewFollowUpBridge(follow, f.registry, nil)
	f.dispatch.results["fetch_crm_records"] = &entity.ToolResult{
		Status:  entity.ToolResultSuccess,
		Name:    "fetch_crm_records",
		Payload: map[string]interface{}{"email": "ada@acme.io"},
	}

	run := newTestRun(
		pendingStep("step1", "fetch_crm_records", map[string]interface{}{"entity": "contact"}),
		pendingStep("step2", "send_email", map[string]interface{}{
			"to":      "placeholder@nowhere.io",
			"subject": "Original",
		}),
	)
	f.createRun(t, run)

	sink := &fakeSink{}
	require.NoError(t, f.engine.Execute(context.Background(), run, sink))

	require.Equal(t, "ada@acme.io", f.dispatch.args[1]["to"])
	require.Equal(t, "Follow up", f.dispatch.args[1]["subject"])
	require.Contains(t, sink.segmentTexts(), "Fetched Ada's details.")
}

func TestExecuteResumeKeepsCompletedStepArguments(t *testing.T) {
	f := newEngineFixture(t)
	follow := &fakeCompleter{
		responses: []map[string]interface{}{
			{
				"summary":          "Replayed the fetch.",
				"nextToolCallArgs": map[string]interface{}{"to": "x@y.z", "subject": "rewritten"},
			},
			{
				"summary":          "Drafted the email.",
				"nextToolCallArgs": map[string]interface{}{"to": "ada@acme.io", "subject": "from bridge"},
			},
		},
	}
	f.engine.followUp = NewFollowUpBridge(follow, f.registry, nil)

	first := completedStep("step1", "fetch_crm_records", map[string]interface{}{
		"records": []interface{}{map[string]interface{}{"email": "ada@acme.io"}},
	})
	second := completedStep("step2", "send_email", map[string]interface{}{"messageId": "msg-1"})
	second.Call.Arguments = map[string]interface{}{"to": "ada@acme.io", "subject": "original"}
	run := newTestRun(
		first,
		second,
		pendingStep("step3", "send_email", map[string]interface{}{
			"to":      "placeholder@nowhere.io",
			"subject": "pending",
		}),
	)
	run.Status = entity.RunStatusRunning
	f.createRun(t, run)

	sink := &fakeSink{}
	require.NoError(t, f.engine.Execute(context.Background(), run, sink))

	// The replayed bridge for step1 must not rewrite the settled step2's
	// recorded arguments; only the pending step3 takes the suggestion.
	require.Equal(t, "original", second.Call.Arguments["subject"])
	require.Equal(t, []string{"send_email"}, f.dispatch.calls)
	require.Equal(t, "from bridge", f.dispatch.args[0]["subject"])
	require.Equal(t, entity.RunStatusCompleted, run.Status)
}

func TestExecuteRecoversStepPanic(t *testing.T) {
	f := newEngineFixture(t)
	f.engine.dispatcher = panicDispatcher{}

	run := newTestRun(pendingStep("step1", "send_email", map[string]interface{}{
		"to": "a@b.c", "subject": "x",
	}))
	f.createRun(t, run)

	sink := &fakeSink{}
	err := f.engine.Execute(context.Background(), run, sink)
	require.Error(t, err)
	require.Contains(t, err.Error(), "panicked")

	require.Equal(t, entity.RunStatusFailed, run.Status)
	require.Equal(t, FailureCodeExecution, run.Error.Code)
	require.Len(t, sink.finalErrors(), 1)
}

func TestExecuteEmitsSnapshotsNotLiveRun(t *testing.T) {
	f := newEngineFixture(t)
	run := newTestRun(pendingStep("step1", "send_email", map[string]interface{}{
		"to": "a@b.c", "subject": "x",
	}))
	f.createRun(t, run)

	sink := &fakeSink{}
	require.NoError(t, f.engine.Execute(context.Background(), run, sink))

	var snapshots []*entity.Run
	for _, ev := range sink.events {
		if ev.Type == entity.EventRunUpdated {
			require.NotSame(t, run, ev.Run, "events must carry snapshots")
			snapshots = append(snapshots, ev.Run)
		}
	}
	require.NotEmpty(t, snapshots)

	// The first snapshot was taken before the step settled and stays that
	// way even though the live run has since completed.
	require.Equal(t, entity.RunStatusRunning, snapshots[0].Status)
	require.Equal(t, entity.RunStatusCompleted, snapshots[len(snapshots)-1].Status)
}

func TestExecuteDispatcherErrorSettlesStepFailed(t *testing.T) {
	f := newEngineFixture(t)
	f.dispatch.err = errno.ErrToolNotFound

	run := newTestRun(pendingStep("step1", "send_email", map[string]interface{}{
		"to": "a@b.c", "subject": "x",
	}))
	f.createRun(t, run)

	err := f.engine.Execute(context.Background(), run, &fakeSink{})
	require.Error(t, err)

	require.Equal(t, entity.StepStatusFailed, run.Steps[0].Status)
	require.NotNil(t, run.Steps[0].Result)
	require.Equal(t, entity.ToolResultFailed, run.Steps[0].Result.Status)
	require.Equal(t, FailureCodeDispatch, run.Error.Code)
}
