package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/kestrad/planchette/internal/planchette/service/planner"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/repo"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service/runtime"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/safego"
)

// planServiceImpl implements the PlanService interface.
type planServiceImpl struct {
	sessionRepo repo.SessionRepository
	runRepo     repo.RunRepository
	historyRepo repo.HistoryRepository
	generator   *planner.Generator
	engine      *runtime.Engine
	runTimeout  time.Duration
	log         logger.Logger
}

// NewPlanService wires the application service over its collaborators.
func NewPlanService(
	sessionRepo repo.SessionRepository,
	runRepo repo.RunRepository,
	historyRepo repo.HistoryRepository,
	generator *planner.Generator,
	engine *runtime.Engine,
	runTimeout time.Duration,
	log logger.Logger,
) PlanService {
	if log == nil {
		log = logger.Default()
	}
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	return &planServiceImpl{
		sessionRepo: sessionRepo,
		runRepo:     runRepo,
		historyRepo: historyRepo,
		generator:   generator,
		engine:      engine,
		runTimeout:  runTimeout,
		log:         log,
	}
}

func (p *planServiceImpl) ExecutePlan(ctx context.Context, req *ExecuteRequest) (*schema.StreamReader[*entity.PlanEvent], error) {
	session, err := p.resolveSession(ctx, req.SessionID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("session resolution failed: %w", err)
	}

	steps, err := p.generator.Generate(ctx, req.Request)
	if err != nil {
		return nil, err
	}

	run := &entity.Run{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		UserID:    req.UserID,
		Request:   req.Request,
		Steps:     steps,
		Status:    entity.RunStatusCreated,
		CreatedAt: time.Now(),
	}
	if err := p.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	session.UpdatedAt = time.Now()
	if err := p.sessionRepo.Update(ctx, session); err != nil {
		p.log.Warnf("[Plans] bump session %s: %v", session.ID, err)
	}

	return p.launch(run), nil
}

func (p *planServiceImpl) ResumeRun(ctx context.Context, runID string) (*schema.StreamReader[*entity.PlanEvent], error) {
	run, err := p.runRepo.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status.IsTerminal() {
		return nil, errno.ErrRunAlreadyDone
	}
	return p.launch(run), nil
}

// launch starts the engine on its own flow and hands back the reader end
// of the event pipe. The execution outlives the request context; the run
// timeout bounds it instead.
func (p *planServiceImpl) launch(run *entity.Run) *schema.StreamReader[*entity.PlanEvent] {
	sr, sw := schema.Pipe[*entity.PlanEvent](20)
	sink := runtime.NewPipeSink(sw)

	execCtx, cancel := context.WithTimeout(context.Background(), p.runTimeout)
	safego.Go(execCtx, func() {
		defer cancel()
		defer sw.Close()

		if err := p.engine.Execute(execCtx, run, sink); err != nil {
			p.log.Warnf("[Plans] run %s halted: %v", run.ID, err)
		}
	})
	return sr
}

func (p *planServiceImpl) GetRun(ctx context.Context, id string) (*entity.Run, error) {
	return p.runRepo.Get(ctx, id)
}

func (p *planServiceImpl) ListRunsBySession(ctx context.Context, sessionID string) ([]*entity.Run, error) {
	return p.runRepo.ListBySession(ctx, sessionID)
}

func (p *planServiceImpl) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	return p.sessionRepo.Get(ctx, id)
}

func (p *planServiceImpl) ListSessionsByUser(ctx context.Context, userID string) ([]*entity.Session, error) {
	return p.sessionRepo.ListByUser(ctx, userID)
}

func (p *planServiceImpl) DeleteSession(ctx context.Context, id string) error {
	return p.sessionRepo.Delete(ctx, id)
}

func (p *planServiceImpl) ListHistory(ctx context.Context, userID string) ([]*entity.HistoryRecord, error) {
	return p.historyRepo.ListByUser(ctx, userID)
}

// resolveSession loads an existing session or creates a new one.
func (p *planServiceImpl) resolveSession(ctx context.Context, sessionID, userID string) (*entity.Session, error) {
	if sessionID != "" {
		session, err := p.sessionRepo.Get(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, errno.ErrSessionNotFound) {
			return nil, err
		}
	}

	session := &entity.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := p.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
