package plans

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrad/planchette/internal/planchette/service/llm"
	"github.com/kestrad/planchette/internal/planchette/service/planner"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/repo"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/service/runtime"
	boltdbStore "github.com/kestrad/planchette/internal/planchette/service/plans/store/boltdb"
	"github.com/kestrad/planchette/internal/planchette/service/plans/store/inmemory"
	sqliteStore "github.com/kestrad/planchette/internal/planchette/service/plans/store/sqlite"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
	"github.com/kestrad/planchette/pkg/logger"
)

// Config holds the configuration for the Plans module.
// Follows K8S-style: Config → Complete() → New(ctx, deps).
type Config struct {
	// RunTimeout is the maximum duration for a single run (default: 5m).
	RunTimeout time.Duration `json:"run_timeout,omitempty"`

	// StoreType selects the run/session persistence backend: "inmemory"
	// or "boltdb". Default: "inmemory".
	StoreType string `json:"store_type,omitempty"`

	// BoltDBPath is the file path for BoltDB storage (when
	// StoreType="boltdb"). Default: "data/planchette.db".
	BoltDBPath string `json:"boltdb_path,omitempty"`

	// HistoryStoreType selects the history backend: "inmemory" or
	// "sqlite". Default: "inmemory".
	HistoryStoreType string `json:"history_store_type,omitempty"`

	// HistoryDBPath is the file path for SQLite history storage (when
	// HistoryStoreType="sqlite"). Default: "data/history.db".
	HistoryDBPath string `json:"history_db_path,omitempty"`

	// HistoryMaxRecords bounds the per-user history log (default: 100).
	HistoryMaxRecords int `json:"history_max_records,omitempty"`
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.RunTimeout <= 0 {
		c.RunTimeout = 5 * time.Minute
	}
	if c.StoreType == "" {
		c.StoreType = "inmemory"
	}
	if c.BoltDBPath == "" {
		c.BoltDBPath = "data/planchette.db"
	}
	if c.HistoryStoreType == "" {
		c.HistoryStoreType = "inmemory"
	}
	if c.HistoryDBPath == "" {
		c.HistoryDBPath = "data/history.db"
	}
	if c.HistoryMaxRecords <= 0 {
		c.HistoryMaxRecords = 100
	}
	return CompletedConfig{c}
}

// Dependencies holds the external modules required by the Plans module.
type Dependencies struct {
	LLM   *llm.Module
	Tools *tools.Module
}

// Module is the top-level Plans module, holding all domain services.
type Module struct {
	Service service.PlanService
	Engine  *runtime.Engine

	boltDB    *boltdbStore.DB           // nil when using inmemory store
	historyDB *sqliteStore.HistoryStore // nil when using inmemory history
}

// Close releases resources held by the module.
func (m *Module) Close() error {
	if m.historyDB != nil {
		if err := m.historyDB.Close(); err != nil {
			return err
		}
	}
	if m.boltDB != nil {
		return m.boltDB.Close()
	}
	return nil
}

// New creates and initializes the Plans module from a completed config.
func (c CompletedConfig) New(_ context.Context, deps Dependencies) (*Module, error) {
	logger.Info("[Plans] creating Plans module...")

	if deps.LLM == nil {
		return nil, fmt.Errorf("LLM module dependency is required")
	}
	if deps.Tools == nil {
		return nil, fmt.Errorf("Tools module dependency is required")
	}

	log := logger.Default()

	// Infrastructure layer: select store backends.
	var (
		sessionStore repo.SessionRepository
		runStore     repo.RunRepository
		historyStore repo.HistoryRepository
		boltDB       *boltdbStore.DB
		historyDB    *sqliteStore.HistoryStore
	)

	switch c.StoreType {
	case "boltdb":
		var err error
		boltDB, err = boltdbStore.Open(c.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb at %s: %w", c.BoltDBPath, err)
		}
		sessionStore = boltdbStore.NewSessionStore(boltDB)
		runStore = boltdbStore.NewRunStore(boltDB)
		logger.Info("[Plans] using BoltDB store at %s", c.BoltDBPath)
	default:
		sessionStore = inmemory.NewSessionStore()
		runStore = inmemory.NewRunStore()
		logger.Info("[Plans] using in-memory store")
	}

	switch c.HistoryStoreType {
	case "sqlite":
		var err error
		historyDB, err = sqliteStore.Open(c.HistoryDBPath, c.HistoryMaxRecords)
		if err != nil {
			if boltDB != nil {
				boltDB.Close()
			}
			return nil, fmt.Errorf("failed to open sqlite history at %s: %w", c.HistoryDBPath, err)
		}
		historyStore = historyDB
		logger.Info("[Plans] using SQLite history store at %s (max_records=%d)", c.HistoryDBPath, c.HistoryMaxRecords)
	default:
		historyStore = inmemory.NewHistoryStore(c.HistoryMaxRecords)
		logger.Info("[Plans] using in-memory history store (max_records=%d)", c.HistoryMaxRecords)
	}

	// Runtime: execution engine with all collaborators.
	registry := deps.Tools.Registry
	engine := runtime.NewEngine(
		runtime.NewPlaceholderResolver(log),
		runtime.NewSchemaValidator(registry, log),
		runtime.NewRepairCoordinator(deps.LLM.Completer, registry, log),
		runtime.NewFollowUpBridge(deps.LLM.Completer, registry, log),
		deps.Tools.Dispatcher,
		runStore,
		historyStore,
		log,
	)

	generator := planner.NewGenerator(deps.LLM.Completer, registry, log)

	// Application service layer.
	svc := service.NewPlanService(sessionStore, runStore, historyStore, generator, engine, c.RunTimeout, log)

	logger.Info("[Plans] Plans module initialized (store=%s, history=%s, run_timeout=%s)",
		c.StoreType, c.HistoryStoreType, c.RunTimeout)

	return &Module{
		Service:   svc,
		Engine:    engine,
		boltDB:    boltDB,
		historyDB: historyDB,
	}, nil
}
