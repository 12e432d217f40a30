package planchette

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	genericapiserver "github.com/kestrad/planchette/internal/pkg/server"
	"github.com/kestrad/planchette/internal/planchette/config"
	"github.com/kestrad/planchette/internal/planchette/handler/middleware"
	"github.com/kestrad/planchette/internal/planchette/service/llm"
	"github.com/kestrad/planchette/internal/planchette/service/plans"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/shutdown"
	"github.com/kestrad/planchette/pkg/shutdown/posixsignal"
)

type apiServer struct {
	gs               *shutdown.GracefulShutdown
	gRPCAPIServer    *genericapiserver.GRPCAPIServer
	genericAPIServer *genericapiserver.GenericAPIServer

	llmModule   *llm.Module
	toolsModule *tools.Module
	plansModule *plans.Module

	authConfig *middleware.AuthConfig
}

type preparedAPIServer struct {
	*apiServer
}

// ExtraConfig defines extra configuration for the API server.
type ExtraConfig struct {
	Addr       string
	MaxMsgSize int
}

type completedExtraConfig struct {
	*ExtraConfig
}

// Complete fills in any fields not set that are required to have valid data and can be derived from other fields.
func (c *ExtraConfig) complete() *completedExtraConfig {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:11788"
	}

	return &completedExtraConfig{c}
}

// New create a grpcAPIServer instance.
func (c *completedExtraConfig) New() (*genericapiserver.GRPCAPIServer, error) {
	opts := []grpc.ServerOption{grpc.MaxRecvMsgSize(c.MaxMsgSize)}
	grpcServer := grpc.NewServer(opts...)

	reflection.Register(grpcServer)

	return genericapiserver.NewGRPCAPIServer(grpcServer, c.Addr), nil
}

func createAPIServer(cfg *config.Config) (*apiServer, error) {
	gs := shutdown.New()
	gs.AddShutdownManager(posixsignal.NewPosixSignalManager())

	genericConfig, err := buildGenericConfig(cfg)
	if err != nil {
		return nil, err
	}

	extraConfig, err := buildExtraConfig(cfg)
	if err != nil {
		return nil, err
	}

	genericServer, err := genericConfig.Complete().New()
	if err != nil {
		return nil, err
	}
	extraServer, err := extraConfig.complete().New()
	if err != nil {
		return nil, err
	}

	// Initialize LLM module (K8S-style: Config → Complete → New).
	llmCfg := &llm.Config{
		ModelOptions: cfg.ModelOptions,
	}
	llmModule, err := llmCfg.Complete().New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM module: %w", err)
	}
	logger.Info("[Planchette] LLM module initialized successfully")

	// Initialize Tools module: builtins + file definitions + MCP servers.
	mcpServers, err := tools.LoadMCPConfig(cfg.ToolOptions.MCPConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load MCP config from %q: %w", cfg.ToolOptions.MCPConfigFile, err)
	}
	toolsCfg := &tools.Config{
		DefinitionDir:  cfg.ToolOptions.DefinitionDir,
		MCPServers:     mcpServers,
		DisableBuiltin: cfg.ToolOptions.DisableBuiltin,
	}
	toolsModule, err := toolsCfg.Complete().New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create Tools module: %w", err)
	}
	logger.Info("[Planchette] Tools module initialized successfully")

	// Initialize Plans module: stores, engine and application service.
	plansCfg := &plans.Config{
		RunTimeout:        cfg.PlanOptions.RunTimeout,
		StoreType:         cfg.PlanOptions.Store,
		BoltDBPath:        cfg.PlanOptions.BoltDBPath,
		HistoryStoreType:  cfg.PlanOptions.HistoryStore,
		HistoryDBPath:     cfg.PlanOptions.HistoryDBPath,
		HistoryMaxRecords: cfg.PlanOptions.HistoryMaxRecords,
	}
	plansModule, err := plansCfg.Complete().New(context.Background(), plans.Dependencies{
		LLM:   llmModule,
		Tools: toolsModule,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Plans module: %w", err)
	}
	logger.Info("[Planchette] Plans module initialized successfully")

	server := &apiServer{
		gs:               gs,
		genericAPIServer: genericServer,
		gRPCAPIServer:    extraServer,
		llmModule:        llmModule,
		toolsModule:      toolsModule,
		plansModule:      plansModule,
		authConfig: &middleware.AuthConfig{
			Enabled: cfg.AuthOptions.Enabled,
			Token:   cfg.AuthOptions.Token,
		},
	}

	return server, nil
}

func (s *apiServer) PrepareRun() preparedAPIServer {
	initRouter(s.genericAPIServer.Engine, &routerDeps{
		planService: s.plansModule.Service,
		registry:    s.toolsModule.Registry,
		authConfig:  s.authConfig,
	})

	s.gs.AddShutdownCallback(shutdown.ShutdownFunc(func(string) error {
		// Close tools module (disconnect MCP servers, stop watchers).
		if s.toolsModule != nil {
			s.toolsModule.Close()
		}
		// Close plans module (BoltDB / SQLite handles if any).
		if s.plansModule != nil {
			s.plansModule.Close()
		}
		s.gRPCAPIServer.Stop()
		s.genericAPIServer.Close()
		return nil
	}))
	return preparedAPIServer{s}
}

func (s preparedAPIServer) Run() error {
	go s.gRPCAPIServer.Run()

	// start shutdown managers
	if err := s.gs.Start(); err != nil {
		log.Fatalf("start shutdown manager failed: %s", err.Error())
	}

	return s.genericAPIServer.Run()
}

func buildGenericConfig(cfg *config.Config) (genericConfig *genericapiserver.Config, lastErr error) {
	genericConfig = genericapiserver.NewConfig()
	if lastErr = cfg.GenericServerRunOptions.ApplyTo(genericConfig); lastErr != nil {
		return
	}

	return
}

func buildExtraConfig(cfg *config.Config) (*ExtraConfig, error) {
	return &ExtraConfig{
		Addr:       fmt.Sprintf("%s:%d", cfg.GRPCOptions.BindAddress, cfg.GRPCOptions.BindPort),
		MaxMsgSize: cfg.GRPCOptions.MaxMsgSize,
	}, nil
}
