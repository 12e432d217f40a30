package tools

import (
	"context"
	"fmt"

	"github.com/kestrad/planchette/internal/planchette/service/tools/builtin"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/safego"
)

// Config holds the configuration for the Tools module.
// Follows the Config → Complete() → New(ctx) pattern.
type Config struct {
	// DefinitionDir is an optional directory of *.json tool definition
	// files, hot-reloaded on change. Empty disables file definitions.
	DefinitionDir string `json:"definition_dir,omitempty"`

	// MCPServers maps server name → MCP server configuration.
	MCPServers map[string]*MCPServerConfig `json:"mcp_servers,omitempty"`

	// DisableBuiltin skips registration of the in-tree tools.
	DisableBuiltin bool `json:"disable_builtin,omitempty"`
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.MCPServers == nil {
		c.MCPServers = make(map[string]*MCPServerConfig)
	}
	return CompletedConfig{c}
}

// Module is the Tools module: the registry of executable tool
// definitions and the dispatcher that runs them.
type Module struct {
	Registry   *Registry
	Dispatcher Dispatcher

	mcp *MCPManager
}

// New creates and initializes the Tools module.
func (c CompletedConfig) New(ctx context.Context) (*Module, error) {
	log := logger.Default()
	registry := NewRegistry(log)

	if !c.DisableBuiltin {
		if err := registerBuiltins(registry); err != nil {
			return nil, fmt.Errorf("register builtin tools: %w", err)
		}
	}

	if c.DefinitionDir != "" {
		loader := NewLoader(registry, c.DefinitionDir, log)
		if err := loader.Load(); err != nil {
			return nil, err
		}
		safego.Go(ctx, func() {
			if err := loader.Watch(ctx); err != nil {
				log.Warnf("[Tools] definition watcher stopped: %v", err)
			}
		})
	}

	var mcpMgr *MCPManager
	if len(c.MCPServers) > 0 {
		mcpMgr = NewMCPManager(c.MCPServers, registry, log)
		if err := mcpMgr.Initialize(ctx); err != nil {
			log.Warnf("[Tools] MCP initialization degraded: %v", err)
		}
	}

	log.Infof("[Tools] module initialized with %d tools", len(registry.List()))

	return &Module{
		Registry:   registry,
		Dispatcher: NewDispatcher(registry, log),
		mcp:        mcpMgr,
	}, nil
}

// Close releases MCP client connections.
func (m *Module) Close() {
	if m.mcp != nil {
		m.mcp.Close()
	}
}

func registerBuiltins(registry *Registry) error {
	defs := []*Definition{
		{
			Name:        "send_email",
			Description: "Send an email to a single recipient.",
			Schema:      []byte(builtin.SendEmailSchema),
			Invokable:   &builtin.SendEmailTool{},
			Source:      "builtin",
		},
		{
			Name:        "fetch_records",
			Description: "Fetch CRM records of a given entity type, optionally filtered by name.",
			Schema:      []byte(builtin.FetchRecordsSchema),
			Invokable:   &builtin.FetchRecordsTool{},
			Source:      "builtin",
		},
		{
			Name:        "send_update",
			Description: "Update fields on an existing CRM record.",
			Schema:      []byte(builtin.SendUpdateSchema),
			Invokable:   &builtin.SendUpdateTool{},
			Source:      "builtin",
		},
		{
			Name:        "create_event",
			Description: "Create a calendar event with optional attendees.",
			Schema:      []byte(builtin.CreateEventSchema),
			Invokable:   &builtin.CreateEventTool{},
			Source:      "builtin",
		},
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
