package tools

import (
	"context"
	"fmt"
	"sync"

	mcpTool "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// MCPServerConfig defines one MCP server connection. Supports "stdio"
// (subprocess) and "sse" (HTTP SSE) transports, matching the Claude
// Desktop mcp.json format.
type MCPServerConfig struct {
	Transport  string   `json:"transport,omitempty"  mapstructure:"transport"`
	Command    string   `json:"command,omitempty"    mapstructure:"command"`
	Args       []string `json:"args,omitempty"       mapstructure:"args"`
	Env        []string `json:"env,omitempty"        mapstructure:"env"`
	URL        string   `json:"url,omitempty"        mapstructure:"url"`
	ToolFilter []string `json:"toolFilter,omitempty" mapstructure:"tool-filter"`
}

// MCPManager connects to configured MCP servers and registers their
// discovered tools into the shared registry.
type MCPManager struct {
	mu       sync.Mutex
	servers  map[string]*MCPServerConfig
	clients  []client.MCPClient
	registry *Registry
	log      logger.Logger
}

// NewMCPManager creates an MCPManager for the given server set.
func NewMCPManager(servers map[string]*MCPServerConfig, registry *Registry, log logger.Logger) *MCPManager {
	if log == nil {
		log = logger.Default()
	}
	return &MCPManager{servers: servers, registry: registry, log: log}
}

// Initialize connects to all configured servers concurrently. Individual
// failures are logged but don't prevent other servers from connecting.
func (m *MCPManager) Initialize(ctx context.Context) error {
	if len(m.servers) == 0 {
		m.log.Infof("[MCP] no MCP servers configured, skipping initialization")
		return nil
	}

	var wg sync.WaitGroup
	connected := 0
	var connMu sync.Mutex

	for name, cfg := range m.servers {
		wg.Add(1)
		go func(name string, cfg *MCPServerConfig) {
			defer wg.Done()
			if err := m.connect(ctx, name, cfg); err != nil {
				m.log.Warnf("[MCP] server %q failed to connect: %v", name, err)
				return
			}
			connMu.Lock()
			connected++
			connMu.Unlock()
		}(name, cfg)
	}
	wg.Wait()

	m.log.Infof("[MCP] initialization complete: %d/%d servers connected", connected, len(m.servers))
	if connected == 0 && len(m.servers) > 0 {
		return fmt.Errorf("all %d MCP servers failed to connect", len(m.servers))
	}
	return nil
}

func (m *MCPManager) connect(ctx context.Context, name string, cfg *MCPServerConfig) error {
	cli, err := createMCPClient(cfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "planchette",
		Version: "0.1.0",
	}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	discovered, err := mcpTool.GetTools(ctx, &mcpTool.Config{
		Cli:          cli,
		ToolNameList: cfg.ToolFilter,
	})
	if err != nil {
		return fmt.Errorf("get tools: %w", err)
	}

	registered := 0
	for _, t := range discovered {
		if err := m.registerTool(ctx, t); err != nil {
			m.log.Warnf("[MCP] server %q: skipping tool: %v", name, err)
			continue
		}
		registered++
	}

	m.mu.Lock()
	m.clients = append(m.clients, cli)
	m.mu.Unlock()

	m.log.Infof("[MCP] server %q connected, %d tools registered", name, registered)
	return nil
}

func (m *MCPManager) registerTool(ctx context.Context, t tool.BaseTool) error {
	info, err := t.Info(ctx)
	if err != nil || info == nil {
		return fmt.Errorf("tool info unavailable: %v", err)
	}
	invokable, ok := t.(tool.InvokableTool)
	if !ok {
		return fmt.Errorf("tool %q is not invokable", info.Name)
	}

	// Recover the declarative argument schema from the tool info so the
	// validator can check calls before they leave the process. Tools
	// whose schema cannot be recovered are registered schemaless and
	// validated by the MCP server itself.
	var schemaBytes []byte
	if info.ParamsOneOf != nil {
		if js, err := info.ParamsOneOf.ToJSONSchema(); err == nil && js != nil {
			schemaBytes, _ = json.Marshal(js)
		}
	}

	return m.registry.Register(&Definition{
		Name:        info.Name,
		Description: info.Desc,
		Schema:      schemaBytes,
		Invokable:   invokable,
		Source:      "mcp",
	})
}

// Close closes all server connections.
func (m *MCPManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cli := range m.clients {
		if err := cli.Close(); err != nil {
			m.log.Warnf("[MCP] failed to close client: %v", err)
		}
	}
	m.clients = nil
}

func createMCPClient(cfg *MCPServerConfig) (client.MCPClient, error) {
	transport := cfg.Transport
	if transport == "" {
		transport = "stdio"
	}
	switch transport {
	case "stdio":
		return client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
	case "sse":
		return client.NewSSEMCPClient(cfg.URL)
	default:
		return nil, fmt.Errorf("unknown transport: %s", transport)
	}
}
