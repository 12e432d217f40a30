package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrad/planchette/internal/planchette/service/llm"
	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

const followUpSystemPrompt = `You narrate progress of a multi-step plan and prepare the next step. ` +
	`Reply with a single JSON object of the form {"summary": "...", "nextToolCallArgs": {...}} and nothing else. ` +
	`The summary is one short sentence for the user about what just happened. ` +
	`nextToolCallArgs holds concrete arguments for the next tool derived from the previous result, or null if you cannot derive them.`

// FollowUpBridge asks the completion client for a short summary of the
// just-completed step plus candidate arguments for the next one. A bridge
// failure never halts the run: every error path degrades to a generic
// summary and nil arguments.
type FollowUpBridge struct {
	completer llm.Completer
	registry  *tools.Registry
	log       logger.Logger
}

// NewFollowUpBridge creates a bridge using the given completer.
func NewFollowUpBridge(completer llm.Completer, registry *tools.Registry, log logger.Logger) *FollowUpBridge {
	if log == nil {
		log = logger.Default()
	}
	return &FollowUpBridge{completer: completer, registry: registry, log: log}
}

// Bridge generates the summary and next-step arguments for the step at
// idx. Both return values may be empty; an empty summary means there is
// nothing to narrate and nil arguments mean the next step keeps what it
// has. The prior result is the latest settled step at or before idx, so a
// replayed bridge narrates from the step it belongs to rather than the
// globally last settled one.
func (f *FollowUpBridge) Bridge(ctx context.Context, run *entity.Run, idx int, nextStep *entity.Step) (string, map[string]interface{}) {
	prior := run.LastSettledStep(idx + 1)
	if prior == nil {
		return "", nil
	}

	fallback := fmt.Sprintf("Completed the %s step.", prior.Call.Name)

	if f.completer == nil {
		return fallback, nil
	}

	resp, err := f.completer.CompleteJSON(ctx, followUpSystemPrompt, f.buildPrompt(run, prior, nextStep))
	if err != nil {
		f.log.Warnf("[FollowUp] completion failed for run %s, using fallback summary: %v", run.ID, err)
		return fallback, nil
	}

	summary := fallback
	if s, ok := resp["summary"].(string); ok && strings.TrimSpace(s) != "" {
		summary = s
	}
	nextArgs, _ := resp["nextToolCallArgs"].(map[string]interface{})
	return summary, nextArgs
}

func (f *FollowUpBridge) buildPrompt(run *entity.Run, prior, nextStep *entity.Step) string {
	priorText := "null"
	if s, err := json.MarshalString(prior.Result.Payload); err == nil {
		priorText = s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user's goal: %s\n\n", run.Request)
	fmt.Fprintf(&b, "The %q tool just completed with this result:\n%s\n\n", prior.Call.Name, priorText)
	fmt.Fprintf(&b, "The next step calls tool %q.\n", nextStep.Call.Name)
	if def, err := f.registry.Get(nextStep.Call.Name); err == nil {
		if def.Description != "" {
			fmt.Fprintf(&b, "Tool description: %s\n", def.Description)
		}
		if len(def.Schema) > 0 {
			fmt.Fprintf(&b, "Tool argument schema:\n%s\n", string(def.Schema))
		}
	}
	return b.String()
}
