package tools

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
)

// paramsTool carries a ParamsOneOf so schema recovery has something to
// work with.
type paramsTool struct {
	stubInvokable
}

func (p *paramsTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: p.name,
		Desc: "Send a reminder message.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"recipient": {Type: schema.String, Desc: "Who to remind", Required: true},
			"note":      {Type: schema.String, Desc: "Reminder text"},
		}),
	}, nil
}

// infoOnlyTool implements BaseTool but not InvokableTool.
type infoOnlyTool struct{}

func (infoOnlyTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: "info_only"}, nil
}

func TestMCPRegisterToolRecoversSchema(t *testing.T) {
	registry := NewRegistry(nil)
	m := NewMCPManager(nil, registry, nil)

	err := m.registerTool(context.Background(), &paramsTool{stubInvokable{name: "send_reminder"}})
	require.NoError(t, err)

	def, err := registry.Get("send_reminder")
	require.NoError(t, err)
	require.Equal(t, "mcp", def.Source)
	require.NotNil(t, def.CompiledSchema())
	require.Contains(t, string(def.Schema), "recipient")
}

func TestMCPRegisterToolSchemalessWhenNoParams(t *testing.T) {
	registry := NewRegistry(nil)
	m := NewMCPManager(nil, registry, nil)

	err := m.registerTool(context.Background(), &stubInvokable{name: "bare"})
	require.NoError(t, err)

	def, err := registry.Get("bare")
	require.NoError(t, err)
	require.Empty(t, def.Schema)
	require.Nil(t, def.CompiledSchema())
}

func TestMCPRegisterToolRejectsNonInvokable(t *testing.T) {
	registry := NewRegistry(nil)
	m := NewMCPManager(nil, registry, nil)

	err := m.registerTool(context.Background(), infoOnlyTool{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not invokable")
}

var _ tool.BaseTool = infoOnlyTool{}
