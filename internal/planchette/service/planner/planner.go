package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrad/planchette/internal/planchette/service/llm"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

const planSystemPrompt = `You turn a user request into an ordered tool-call plan. ` +
	`Reply with a single JSON object of the form {"steps": [{"id": "step1", "tool": "...", "arguments": {...}}, ...]} and nothing else. ` +
	`Only use the tools listed in the prompt. Step ids must be unique. ` +
	`When a later step needs data from an earlier step's result, reference it with a placeholder ` +
	`like {{step1.records[0].id}} inside the argument value.`

// Generator turns free-form user text into the ordered step list of a new
// plan.
type Generator struct {
	completer llm.Completer
	registry  *tools.Registry
	log       logger.Logger
}

// NewGenerator creates a Generator over the given completer and tool
// registry.
func NewGenerator(completer llm.Completer, registry *tools.Registry, log logger.Logger) *Generator {
	if log == nil {
		log = logger.Default()
	}
	return &Generator{completer: completer, registry: registry, log: log}
}

// plannedStep is the wire shape of one step in the model's reply.
type plannedStep struct {
	ID        string                 `json:"id"`
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Generate produces the ordered step list for a user request. An empty or
// malformed plan is an error; the caller decides what to tell the user.
func (g *Generator) Generate(ctx context.Context, request string) ([]*entity.Step, error) {
	if g.completer == nil {
		return nil, fmt.Errorf("no completion client configured for planning")
	}

	resp, err := g.completer.CompleteJSON(ctx, planSystemPrompt, g.buildPrompt(request))
	if err != nil {
		return nil, fmt.Errorf("plan completion: %w", err)
	}

	rawSteps, ok := resp["steps"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: plan response has no steps array", errno.ErrMalformedResponse)
	}
	if len(rawSteps) == 0 {
		return nil, errno.ErrEmptyPlan
	}

	steps := make([]*entity.Step, 0, len(rawSteps))
	seen := make(map[string]struct{}, len(rawSteps))
	for i, raw := range rawSteps {
		var ps plannedStep
		if err := remarshal(raw, &ps); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", errno.ErrMalformedResponse, i, err)
		}
		if ps.Tool == "" {
			return nil, fmt.Errorf("%w: step %d has no tool name", errno.ErrMalformedResponse, i)
		}
		if ps.ID == "" {
			ps.ID = fmt.Sprintf("step%d", i+1)
		}
		if _, dup := seen[ps.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate step id %q", errno.ErrMalformedResponse, ps.ID)
		}
		seen[ps.ID] = struct{}{}
		if _, err := g.registry.Get(ps.Tool); err != nil {
			return nil, fmt.Errorf("planned step %q: %w: %s", ps.ID, errno.ErrToolNotFound, ps.Tool)
		}
		if ps.Arguments == nil {
			ps.Arguments = make(map[string]interface{})
		}

		steps = append(steps, &entity.Step{
			ID: ps.ID,
			Call: entity.ToolCall{
				ID:        fmt.Sprintf("call-%s", ps.ID),
				Name:      ps.Tool,
				Arguments: ps.Arguments,
			},
			Status: entity.StepStatusPending,
		})
	}

	g.log.Infof("[Planner] generated %d step(s) for request %q", len(steps), truncate(request, 80))
	return steps, nil
}

func (g *Generator) buildPrompt(request string) string {
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, def := range g.registry.List() {
		fmt.Fprintf(&b, "- %s: %s\n", def.Name, def.Description)
		if len(def.Schema) > 0 {
			fmt.Fprintf(&b, "  arguments schema: %s\n", string(def.Schema))
		}
	}
	fmt.Fprintf(&b, "\nUser request: %s\n", request)
	return b.String()
}

// remarshal decodes an already-parsed JSON value into a typed struct.
func remarshal(v interface{}, out interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
