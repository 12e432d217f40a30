package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/internal/planchette/service/plans/store/inmemory"
)

func TestTransitionToRunning(t *testing.T) {
	run := newTestRun(pendingStep("step1", "send_email", nil))
	store := inmemory.NewRunStore()
	require.NoError(t, store.Create(context.Background(), run))

	sm := NewRunStateMachine(run, store, nil)
	require.NoError(t, sm.TransitionToRunning(context.Background()))
	require.Equal(t, entity.RunStatusRunning, run.Status)

	persisted, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, entity.RunStatusRunning, persisted.Status)
}

func TestTransitionToRunningIsIdempotent(t *testing.T) {
	run := newTestRun(pendingStep("step1", "send_email", nil))
	run.Status = entity.RunStatusRunning

	sm := NewRunStateMachine(run, nil, nil)
	require.NoError(t, sm.TransitionToRunning(context.Background()))
	require.Equal(t, entity.RunStatusRunning, run.Status)
}

func TestTransitionFromTerminalRejected(t *testing.T) {
	for _, status := range []entity.RunStatus{entity.RunStatusCompleted, entity.RunStatusFailed} {
		run := newTestRun(pendingStep("step1", "send_email", nil))
		run.Status = status

		sm := NewRunStateMachine(run, nil, nil)
		err := sm.TransitionToRunning(context.Background())
		require.ErrorIs(t, err, errno.ErrRunAlreadyDone)
		require.Equal(t, status, run.Status, "terminal state must not change")
	}
}

func TestTransitionToCompletedStampsTime(t *testing.T) {
	run := newTestRun(pendingStep("step1", "send_email", nil))
	run.Status = entity.RunStatusRunning

	sm := NewRunStateMachine(run, nil, nil)
	require.NoError(t, sm.TransitionToCompleted(context.Background()))
	require.Equal(t, entity.RunStatusCompleted, run.Status)
	require.NotNil(t, run.CompletedAt)
}

func TestTransitionToFailedRecordsError(t *testing.T) {
	run := newTestRun(pendingStep("step1", "send_email", nil))
	run.Status = entity.RunStatusRunning

	sm := NewRunStateMachine(run, nil, nil)
	sm.TransitionToFailed(context.Background(), FailureCodeDispatch, "tool send_email failed")

	require.Equal(t, entity.RunStatusFailed, run.Status)
	require.NotNil(t, run.CompletedAt)
	require.NotNil(t, run.Error)
	require.Equal(t, FailureCodeDispatch, run.Error.Code)
	require.Equal(t, "tool send_email failed", run.Error.Message)
}
