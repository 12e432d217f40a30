package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/kestrad/planchette/internal/planchette/service/planner"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service/runtime"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/internal/planchette/service/plans/store/inmemory"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
)

type plannerStub struct {
	resp map[string]interface{}
	err  error
}

func (s *plannerStub) CompleteJSON(_ context.Context, _, _ string) (map[string]interface{}, error) {
	return s.resp, s.err
}

type recordingDispatcher struct {
	calls []string
}

func (d *recordingDispatcher) Execute(_ context.Context, req *tools.DispatchRequest) (*entity.ToolResult, error) {
	d.calls = append(d.calls, req.Call.Name)
	return &entity.ToolResult{
		Status:  entity.ToolResultSuccess,
		Name:    req.Call.Name,
		Payload: map[string]interface{}{"ok": true},
	}, nil
}

type serviceFixture struct {
	svc      PlanService
	sessions *inmemory.SessionStore
	runs     *inmemory.RunStore
	history  *inmemory.HistoryStore
	dispatch *recordingDispatcher
}

func newServiceFixture(t *testing.T, completer *plannerStub) *serviceFixture {
	t.Helper()

	registry := tools.NewRegistry(nil)
	require.NoError(t, registry.Register(&tools.Definition{
		Name:        "send_email",
		Description: "Send an email.",
		Schema: []byte(`{
			"type": "object",
			"properties": {
				"to":      {"type": "string"},
				"subject": {"type": "string"},
				"body":    {"type": "string"}
			},
			"required": ["to"]
		}`),
		Source: "builtin",
	}))

	sessions := inmemory.NewSessionStore()
	runs := inmemory.NewRunStore()
	history := inmemory.NewHistoryStore(10)
	dispatch := &recordingDispatcher{}

	engine := runtime.NewEngine(
		runtime.NewPlaceholderResolver(nil),
		runtime.NewSchemaValidator(registry, nil),
		runtime.NewRepairCoordinator(nil, registry, nil),
		runtime.NewFollowUpBridge(nil, registry, nil),
		dispatch,
		runs,
		history,
		nil,
	)

	svc := NewPlanService(
		sessions,
		runs,
		history,
		planner.NewGenerator(completer, registry, nil),
		engine,
		30*time.Second,
		nil,
	)

	return &serviceFixture{
		svc:      svc,
		sessions: sessions,
		runs:     runs,
		history:  history,
		dispatch: dispatch,
	}
}

func singleStepPlan() map[string]interface{} {
	return map[string]interface{}{
		"steps": []interface{}{
			map[string]interface{}{
				"id":   "step1",
				"tool": "send_email",
				"arguments": map[string]interface{}{
					"to":      "ada@acme.test",
					"subject": "hello",
				},
			},
		},
	}
}

// drain consumes the stream to completion and returns every event.
func drain(t *testing.T, sr *schema.StreamReader[*entity.PlanEvent]) []*entity.PlanEvent {
	t.Helper()
	var events []*entity.PlanEvent
	for {
		ev, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestExecutePlanRunsToCompletion(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{resp: singleStepPlan()})

	sr, err := f.svc.ExecutePlan(context.Background(), &ExecuteRequest{
		UserID:  "user-1",
		Request: "email ada about the Q3 numbers",
	})
	require.NoError(t, err)

	events := drain(t, sr)
	require.NotEmpty(t, events)
	require.Equal(t, []string{"send_email"}, f.dispatch.calls)

	var last *entity.Run
	for _, ev := range events {
		if ev.Type == entity.EventRunUpdated {
			last = ev.Run
		}
	}
	require.NotNil(t, last)
	require.Equal(t, entity.RunStatusCompleted, last.Status)

	// The run and its owning session are persisted.
	persisted, err := f.runs.Get(context.Background(), last.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RunStatusCompleted, persisted.Status)

	_, err = f.sessions.Get(context.Background(), persisted.SessionID)
	require.NoError(t, err)

	records, err := f.history.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, records)
}

func TestExecutePlanReusesExistingSession(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{resp: singleStepPlan()})

	session := &entity.Session{
		ID:        "sess-existing",
		UserID:    "user-1",
		Metadata:  map[string]string{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, f.sessions.Create(context.Background(), session))

	sr, err := f.svc.ExecutePlan(context.Background(), &ExecuteRequest{
		SessionID: "sess-existing",
		UserID:    "user-1",
		Request:   "email ada",
	})
	require.NoError(t, err)
	events := drain(t, sr)

	for _, ev := range events {
		require.Equal(t, "sess-existing", ev.SessionID)
	}

	all, err := f.sessions.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestExecutePlanCreatesSessionForUnknownID(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{resp: singleStepPlan()})

	sr, err := f.svc.ExecutePlan(context.Background(), &ExecuteRequest{
		SessionID: "sess-gone",
		UserID:    "user-1",
		Request:   "email ada",
	})
	require.NoError(t, err)
	events := drain(t, sr)
	require.NotEmpty(t, events)
	require.NotEqual(t, "sess-gone", events[0].SessionID)
}

func TestExecutePlanPlanningFailure(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{err: errors.New("model unavailable")})

	_, err := f.svc.ExecutePlan(context.Background(), &ExecuteRequest{
		UserID:  "user-1",
		Request: "email ada",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model unavailable")
	require.Empty(t, f.dispatch.calls)
}

func TestExecutePlanEmptyPlan(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{resp: map[string]interface{}{"steps": []interface{}{}}})

	_, err := f.svc.ExecutePlan(context.Background(), &ExecuteRequest{
		UserID:  "user-1",
		Request: "do nothing",
	})
	require.ErrorIs(t, err, errno.ErrEmptyPlan)
}

func TestResumeRunUnknownRun(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{resp: singleStepPlan()})
	_, err := f.svc.ResumeRun(context.Background(), "run-missing")
	require.ErrorIs(t, err, errno.ErrRunNotFound)
}

func TestResumeRunTerminalRun(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{resp: singleStepPlan()})

	run := &entity.Run{
		ID:        "run-done",
		SessionID: "sess-1",
		UserID:    "user-1",
		Status:    entity.RunStatusCompleted,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.runs.Create(context.Background(), run))

	_, err := f.svc.ResumeRun(context.Background(), "run-done")
	require.ErrorIs(t, err, errno.ErrRunAlreadyDone)
}

func TestDeleteSessionRemovesSession(t *testing.T) {
	f := newServiceFixture(t, &plannerStub{resp: singleStepPlan()})

	session := &entity.Session{ID: "sess-del", UserID: "user-1", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.sessions.Create(context.Background(), session))

	require.NoError(t, f.svc.DeleteSession(context.Background(), "sess-del"))
	_, err := f.svc.GetSession(context.Background(), "sess-del")
	require.ErrorIs(t, err, errno.ErrSessionNotFound)
}
