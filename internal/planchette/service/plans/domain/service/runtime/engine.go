package runtime

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/repo"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
	"github.com/kestrad/planchette/pkg/logger"
)

// Failure codes recorded on a failed run.
const (
	FailureCodeValidation = "validation_error"
	FailureCodeRepair     = "repair_exhausted"
	FailureCodeDispatch   = "dispatch_error"
	FailureCodeExecution  = "execution_error"
)

// stepFailure is a terminal per-step failure carrying its run-level code.
type stepFailure struct {
	code string
	err  error
}

func (f *stepFailure) Error() string { return f.err.Error() }
func (f *stepFailure) Unwrap() error { return f.err }

// Engine walks a run's ordered step list: resolving placeholders,
// validating and repairing arguments, dispatching calls, narrating
// progress, and recording history. Steps execute strictly sequentially;
// the first fatal step failure halts the run.
//
// The run object is exclusively owned by the single flow driving it.
// Everything leaving the engine through the sink is a snapshot.
type Engine struct {
	resolver    *PlaceholderResolver
	validator   Validator
	repairer    *RepairCoordinator
	followUp    *FollowUpBridge
	dispatcher  tools.Dispatcher
	runRepo     repo.RunRepository
	historyRepo repo.HistoryRepository
	log         logger.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(
	resolver *PlaceholderResolver,
	validator Validator,
	repairer *RepairCoordinator,
	followUp *FollowUpBridge,
	dispatcher tools.Dispatcher,
	runRepo repo.RunRepository,
	historyRepo repo.HistoryRepository,
	log logger.Logger,
) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		resolver:    resolver,
		validator:   validator,
		repairer:    repairer,
		followUp:    followUp,
		dispatcher:  dispatcher,
		runRepo:     runRepo,
		historyRepo: historyRepo,
		log:         log,
		active:      make(map[string]struct{}),
	}
}

// Execute drives the run to a terminal state, emitting progress events
// through the sink. It blocks until the run settles; callers wanting a
// stream launch it in a goroutine and consume the sink's reader end.
//
// A run already being executed by another call is rejected with
// ErrEngineBusy. Steps already completed are not re-dispatched, but their
// narration and follow-up still replay so a resumed client sees a
// coherent story.
func (e *Engine) Execute(ctx context.Context, run *entity.Run, sink StreamSink) error {
	if len(run.Steps) == 0 {
		return errno.ErrEmptyPlan
	}
	if run.Status.IsTerminal() {
		return errno.ErrRunAlreadyDone
	}
	if !e.acquire(run.ID) {
		return errno.ErrEngineBusy
	}
	defer e.release(run.ID)

	narrator := NewNarrator(sink, e.log)
	sm := NewRunStateMachine(run, e.runRepo, e.log)
	if err := sm.TransitionToRunning(ctx); err != nil {
		return err
	}
	e.emitRunUpdated(sink, run)

	for i, step := range run.Steps {
		if step.Status == entity.StepStatusCompleted {
			// Idempotent resume: skip execution, replay narration and
			// follow-up for continuity.
			narrator.Complete(step, run.SessionID)
			e.bridgeNext(ctx, run, i, narrator)
			continue
		}

		if err := e.executeStep(ctx, run, i, narrator, sink); err != nil {
			failure := &stepFailure{code: FailureCodeExecution, err: err}
			if f, ok := err.(*stepFailure); ok {
				failure = f
			}
			e.failRun(ctx, sm, run, step, failure, narrator, sink)
			return failure.err
		}

		e.bridgeNext(ctx, run, i, narrator)
	}

	if err := sm.TransitionToCompleted(ctx); err != nil {
		e.log.Warnf("[Engine] persist completed run %s: %v", run.ID, err)
	}
	e.settleHistory(ctx, run, string(entity.RunStatusCompleted))
	e.emitRunUpdated(sink, run)

	e.log.Infof("[Engine] run %s completed (%d steps)", run.ID, len(run.Steps))
	return nil
}

// executeStep runs one step through resolve, validate, repair, dispatch
// and settle. Panics inside the step are recovered at this boundary and
// surface as ordinary step failures.
func (e *Engine) executeStep(ctx context.Context, run *entity.Run, idx int, narrator *Narrator, sink StreamSink) (err error) {
	step := run.Steps[idx]

	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("[Engine] panic in step %s: %v\n%s", step.ID, r, debug.Stack())
			err = &stepFailure{
				code: FailureCodeExecution,
				err:  fmt.Errorf("step %s panicked: %v", step.ID, r),
			}
		}
	}()

	now := time.Now()
	step.Status = entity.StepStatusRunning
	step.StartedAt = &now
	e.persistRun(ctx, run)
	e.emitRunUpdated(sink, run)

	resolved, usedPriorData := e.resolver.Resolve(step.Call.Arguments, run)
	step.Call.Arguments = resolved

	narrator.Announce(step, run.SessionID, usedPriorData)

	if err := e.validateWithRepair(ctx, run, step); err != nil {
		return err
	}

	result, derr := e.dispatcher.Execute(ctx, &tools.DispatchRequest{
		SessionID: run.SessionID,
		UserID:    run.UserID,
		PlanID:    run.ID,
		StepID:    step.ID,
		Call:      step.Call,
	})
	if derr != nil {
		result = &entity.ToolResult{
			Status: entity.ToolResultFailed,
			Name:   step.Call.Name,
			Error:  derr.Error(),
		}
	}

	e.settleStep(ctx, run, step, result)
	e.emitRunUpdated(sink, run)

	if result.Status == entity.ToolResultFailed {
		errText := result.Error
		if errText == "" {
			errText = "tool call failed"
		}
		return &stepFailure{
			code: FailureCodeDispatch,
			err:  fmt.Errorf("tool %s failed: %s", step.Call.Name, errText),
		}
	}

	e.recordHistory(ctx, run, step, fmt.Sprintf("Executed %s", step.Call.Name))
	narrator.Complete(step, run.SessionID)
	return nil
}

// validateWithRepair validates the step's arguments and, on failure, makes
// the single allowed repair attempt before re-validating.
func (e *Engine) validateWithRepair(ctx context.Context, run *entity.Run, step *entity.Step) error {
	verr := e.validator.Validate(step.Call.Name, step.Call.Arguments)
	if verr == nil {
		return nil
	}
	e.log.Warnf("[Engine] step %s failed validation: %v", step.ID, verr)

	corrected, rerr := e.repairer.Repair(ctx, run, step, step.Call.Arguments, verr.Error())
	if rerr != nil {
		return &stepFailure{
			code: FailureCodeValidation,
			err:  fmt.Errorf("%w for step %s: %v (original: %v)", errno.ErrRepairExhausted, step.ID, rerr, verr),
		}
	}

	if verr = e.validator.Validate(step.Call.Name, corrected); verr != nil {
		return &stepFailure{
			code: FailureCodeRepair,
			err:  fmt.Errorf("%w for step %s: %v", errno.ErrRepairExhausted, step.ID, verr),
		}
	}

	e.log.Infof("[Engine] step %s arguments repaired", step.ID)
	step.Call.Arguments = corrected
	return nil
}

// bridgeNext invokes the follow-up bridge after step idx settles, streams
// its summary, and splices its argument suggestion into the next step. It
// never fails the run.
func (e *Engine) bridgeNext(ctx context.Context, run *entity.Run, idx int, narrator *Narrator) {
	if idx >= len(run.Steps)-1 {
		return
	}
	next := run.Steps[idx+1]

	summary, nextArgs := e.followUp.Bridge(ctx, run, idx, next)
	if summary != "" {
		narrator.Say(run.SessionID, summary)
	}
	if nextArgs != nil && (next.Status == entity.StepStatusPending || next.Status == entity.StepStatusReady) {
		// The suggestion supersedes whatever the resolver would have
		// produced for the next step. A step that already settled keeps
		// its recorded arguments; a replayed bridge must not rewrite
		// them.
		next.Call.Arguments = nextArgs
		e.log.Infof("[Engine] follow-up supplied arguments for step %s", next.ID)
	}
}

// failRun settles the failing step when needed, marks the run failed,
// narrates the failure, records it, and emits the single terminal error
// event.
func (e *Engine) failRun(ctx context.Context, sm *RunStateMachine, run *entity.Run, step *entity.Step, failure *stepFailure, narrator *Narrator, sink StreamSink) {
	if !step.Status.IsTerminal() {
		e.settleStep(ctx, run, step, &entity.ToolResult{
			Status: entity.ToolResultFailed,
			Name:   step.Call.Name,
			Error:  failure.err.Error(),
		})
	}

	sm.TransitionToFailed(ctx, failure.code, failure.err.Error())
	narrator.Complete(step, run.SessionID)
	e.recordHistory(ctx, run, step, fmt.Sprintf("Failed %s", step.Call.Name))
	e.settleHistory(ctx, run, string(entity.RunStatusFailed))
	e.emitRunUpdated(sink, run)

	sink.Send(&entity.PlanEvent{
		Type:      entity.EventError,
		SessionID: run.SessionID,
		Error:     failure.err.Error(),
		Final:     true,
	})
}

// settleStep records the step's result and final status exactly once.
func (e *Engine) settleStep(ctx context.Context, run *entity.Run, step *entity.Step, result *entity.ToolResult) {
	now := time.Now()
	step.Result = result
	step.FinishedAt = &now
	if result.Status == entity.ToolResultSuccess {
		step.Status = entity.StepStatusCompleted
	} else {
		step.Status = entity.StepStatusFailed
	}
	e.persistRun(ctx, run)
}

// recordHistory appends the step's call to the history log. The run links
// to its first record so completion can update it later. History failures
// are logged, never fatal.
func (e *Engine) recordHistory(ctx context.Context, run *entity.Run, step *entity.Step, summary string) {
	if e.historyRepo == nil || step.Result == nil {
		return
	}
	record := &entity.HistoryRecord{
		UserID:     run.UserID,
		SessionID:  run.SessionID,
		ToolName:   step.Call.Name,
		Summary:    summary,
		Arguments:  step.Call.Arguments,
		Result:     step.Result.Payload,
		Status:     string(step.Result.Status),
		StepID:     step.ID,
		PlanID:     run.ID,
		PlanStatus: string(run.Status),
	}
	if step.Result.Status == entity.ToolResultFailed {
		record.Result = map[string]interface{}{
			"error":  step.Result.Error,
			"detail": step.Result.ErrorDetail,
		}
	}

	recordID, err := e.historyRepo.RecordToolCall(ctx, record)
	if err != nil {
		e.log.Warnf("[Engine] record tool call for step %s: %v", step.ID, err)
		return
	}
	if run.HistoryRecordID == "" {
		run.HistoryRecordID = recordID
	}
}

// settleHistory updates the run's linked history record with the plan's
// terminal status.
func (e *Engine) settleHistory(ctx context.Context, run *entity.Run, planStatus string) {
	if e.historyRepo == nil || run.HistoryRecordID == "" {
		return
	}
	found, err := e.historyRepo.UpdateRecord(ctx, run.UserID, run.HistoryRecordID, map[string]interface{}{
		"plan_status": planStatus,
	})
	if err != nil {
		e.log.Warnf("[Engine] update history record %s: %v", run.HistoryRecordID, err)
		return
	}
	if !found {
		e.log.Debugf("[Engine] history record %s already trimmed", run.HistoryRecordID)
	}
}

func (e *Engine) emitRunUpdated(sink StreamSink, run *entity.Run) {
	sink.Send(&entity.PlanEvent{
		Type:      entity.EventRunUpdated,
		SessionID: run.SessionID,
		Run:       run.Snapshot(),
	})
}

func (e *Engine) persistRun(ctx context.Context, run *entity.Run) {
	if e.runRepo == nil {
		return
	}
	if err := e.runRepo.Update(ctx, run); err != nil {
		e.log.Warnf("[Engine] persist run %s: %v", run.ID, err)
	}
}

func (e *Engine) acquire(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.active[runID]; busy {
		return false
	}
	e.active[runID] = struct{}{}
	return true
}

func (e *Engine) release(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, runID)
}
