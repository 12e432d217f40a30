package runtime

import (
	"context"
	"time"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/repo"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/pkg/logger"
)

// RunStateMachine manages the lifecycle state transitions of a run.
// State machine: Created -> Running -> Completed | Failed
// Transitions are monotonic; a terminal run never leaves its state.
type RunStateMachine struct {
	run     *entity.Run
	runRepo repo.RunRepository
	log     logger.Logger
}

// NewRunStateMachine creates a new RunStateMachine for the given run.
func NewRunStateMachine(run *entity.Run, runRepo repo.RunRepository, log logger.Logger) *RunStateMachine {
	if log == nil {
		log = logger.Default()
	}
	return &RunStateMachine{
		run:     run,
		runRepo: runRepo,
		log:     log,
	}
}

// TransitionToRunning transitions the run to the Running state. A run that
// is already running stays running, which is what a mid-way resume needs.
func (sm *RunStateMachine) TransitionToRunning(ctx context.Context) error {
	if sm.run.Status.IsTerminal() {
		return errno.ErrRunAlreadyDone
	}
	sm.run.Status = entity.RunStatusRunning
	sm.log.Infof("[RunState] run %s -> running", sm.run.ID)
	return sm.persist(ctx)
}

// TransitionToCompleted transitions the run to the Completed state.
func (sm *RunStateMachine) TransitionToCompleted(ctx context.Context) error {
	now := time.Now()
	sm.run.CompletedAt = &now
	sm.run.Status = entity.RunStatusCompleted
	sm.log.Infof("[RunState] run %s -> completed", sm.run.ID)
	return sm.persist(ctx)
}

// TransitionToFailed transitions the run to the Failed state.
func (sm *RunStateMachine) TransitionToFailed(ctx context.Context, code, message string) {
	now := time.Now()
	sm.run.CompletedAt = &now
	sm.run.Status = entity.RunStatusFailed
	sm.run.Error = &entity.RunError{Code: code, Message: message}
	sm.log.Errorf("[RunState] run %s -> failed, err: %v", sm.run.ID, sm.run.Error)
	if err := sm.persist(ctx); err != nil {
		sm.log.Warnf("[RunState] persist failed run %s: %v", sm.run.ID, err)
	}
}

// Run returns the current run.
func (sm *RunStateMachine) Run() *entity.Run {
	return sm.run
}

func (sm *RunStateMachine) persist(ctx context.Context) error {
	if sm.runRepo == nil {
		return nil
	}
	return sm.runRepo.Update(ctx, sm.run)
}
