package tools

import (
	"fmt"
	"os"

	"github.com/kestrad/planchette/pkg/utils/json"
)

// mcpFileConfig is the on-disk MCP configuration, compatible with the
// Claude Desktop mcp.json format.
type mcpFileConfig struct {
	MCPServers map[string]*MCPServerConfig `json:"mcpServers"`
}

// LoadMCPConfig reads the MCP server map from a standalone config file. A
// missing file is not an error; it just means no MCP servers.
func LoadMCPConfig(path string) (map[string]*MCPServerConfig, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read mcp config %q: %w", path, err)
	}

	var cfg mcpFileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse mcp config %q: %w", path, err)
	}
	return cfg.MCPServers, nil
}
