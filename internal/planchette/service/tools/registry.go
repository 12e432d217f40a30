package tools

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/tool"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/pkg/logger"
)

// Definition is one registered tool: its declarative JSON Schema plus the
// invokable that executes it.
type Definition struct {
	// Name is the tool's unique name (e.g. "send_email").
	Name string
	// Description is shown to the model when planning and repairing.
	Description string
	// Schema is the raw JSON Schema document for the tool's arguments.
	Schema []byte
	// Invokable executes the tool. Both builtin tools and MCP-discovered
	// tools arrive as Eino invokables.
	Invokable tool.InvokableTool
	// Source records where the tool came from ("builtin", "file", "mcp").
	Source string

	compiled *jsonschema.Schema
}

// CompiledSchema returns the compiled form of the tool's schema.
func (d *Definition) CompiledSchema() *jsonschema.Schema { return d.compiled }

// Registry holds all registered tool definitions. Schemas are compiled at
// registration time so validation never re-parses them.
//
// Thread-safe: file watching may replace definitions while runs read them.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
	log  logger.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.Default()
	}
	return &Registry{
		defs: make(map[string]*Definition),
		log:  log,
	}
}

// Register adds or replaces a tool definition, compiling its schema.
func (r *Registry) Register(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	if len(def.Schema) > 0 {
		compiled, err := compileSchema(def.Name, def.Schema)
		if err != nil {
			return fmt.Errorf("tool %q: %w", def.Name, err)
		}
		def.compiled = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.defs[def.Name]; ok && old.Source != def.Source {
		r.log.Warnf("[Tools] tool %q (%s) replaced by %s definition", def.Name, old.Source, def.Source)
	}
	r.defs[def.Name] = def
	return nil
}

// Get returns the definition for name.
func (r *Registry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errno.ErrToolNotFound, name)
	}
	return def, nil
}

// List returns all definitions sorted by name.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SchemaFor returns the raw JSON Schema registered for the tool.
func (r *Registry) SchemaFor(name string) ([]byte, error) {
	def, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return def.Schema, nil
}

func compileSchema(name string, raw []byte) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	resource := name + ".schema.json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}
