package options

import (
	"github.com/spf13/pflag"
)

// ToolOptions configures the tool registry: builtin tools, file-defined
// tools and MCP servers.
type ToolOptions struct {
	// DefinitionDir is a directory of *.json tool definition files,
	// hot-reloaded on change. Empty disables file definitions.
	DefinitionDir string `json:"definition-dir" mapstructure:"definition-dir"`

	// MCPConfigFile is the path of the MCP servers config file (Claude
	// Desktop compatible mcpServers format).
	MCPConfigFile string `json:"mcp-config"     mapstructure:"mcp-config"`

	// DisableBuiltin skips registration of the in-tree tools.
	DisableBuiltin bool `json:"disable-builtin" mapstructure:"disable-builtin"`
}

// NewToolOptions creates a ToolOptions with defaults.
func NewToolOptions() *ToolOptions {
	return &ToolOptions{
		MCPConfigFile: "configs/mcp.json",
	}
}

// Validate checks the options for sanity.
func (o *ToolOptions) Validate() []error {
	return nil
}

// AddFlags adds flags related to tools to the given flagset.
func (o *ToolOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.DefinitionDir, "tools.definition-dir", o.DefinitionDir,
		"Directory of JSON tool definition files, hot-reloaded on change. Empty disables file definitions.")
	fs.StringVar(&o.MCPConfigFile, "tools.mcp-config", o.MCPConfigFile,
		"Path of the MCP servers config file (mcpServers format).")
	fs.BoolVar(&o.DisableBuiltin, "tools.disable-builtin", o.DisableBuiltin,
		"Skip registration of the builtin email/CRM/calendar tools.")
}
