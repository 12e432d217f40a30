package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/fsnotify/fsnotify"

	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// fileDefinition is the on-disk shape of a tool definition file.
type fileDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"`
	// Result is the canned payload the tool answers with. File-defined
	// tools are fixtures for local development and demos; production
	// tools arrive via MCP servers.
	Result map[string]interface{} `json:"result"`
}

// fileTool is the invokable backing a file-defined tool.
type fileTool struct {
	name   string
	desc   string
	result map[string]interface{}
}

var _ tool.InvokableTool = (*fileTool)(nil)

func (t *fileTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: t.name, Desc: t.desc}, nil
}

func (t *fileTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	if t.result != nil {
		return json.MarshalString(t.result)
	}
	// No canned result: echo the arguments back as the payload.
	return argumentsInJSON, nil
}

// Loader reads tool definition files from a directory into the registry
// and hot-reloads them when the directory changes.
type Loader struct {
	registry *Registry
	dir      string
	log      logger.Logger
}

// NewLoader creates a Loader for the given directory.
func NewLoader(registry *Registry, dir string, log logger.Logger) *Loader {
	if log == nil {
		log = logger.Default()
	}
	return &Loader{registry: registry, dir: dir, log: log}
}

// Load reads every *.json definition in the directory. Individual bad
// files are logged and skipped so one broken definition cannot take the
// rest down.
func (l *Loader) Load() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read tool directory %s: %w", l.dir, err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(l.dir, e.Name())
		if err := l.loadFile(path); err != nil {
			l.log.Warnf("[Tools] skipping %s: %v", path, err)
			continue
		}
		loaded++
	}
	l.log.Infof("[Tools] loaded %d tool definitions from %s", loaded, l.dir)
	return nil
}

func (l *Loader) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var def fileDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parse definition: %w", err)
	}
	if def.Name == "" {
		return fmt.Errorf("definition has no name")
	}

	var schemaBytes []byte
	if def.Schema != nil {
		if schemaBytes, err = json.Marshal(def.Schema); err != nil {
			return fmt.Errorf("re-encode schema: %w", err)
		}
	}

	return l.registry.Register(&Definition{
		Name:        def.Name,
		Description: def.Description,
		Schema:      schemaBytes,
		Invokable:   &fileTool{name: def.Name, desc: def.Description, result: def.Result},
		Source:      "file",
	})
}

// Watch re-loads the directory whenever a definition file changes. It
// blocks until ctx is cancelled; callers run it in a goroutine.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}
	l.log.Infof("[Tools] watching %s for definition changes", l.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			l.log.Infof("[Tools] definition change detected: %s", ev.Name)
			if err := l.Load(); err != nil {
				l.log.Warnf("[Tools] reload failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log.Warnf("[Tools] watcher error: %v", err)
		}
	}
}
