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

const repairSystemPrompt = `You fix tool call arguments that failed schema validation. ` +
	`Reply with a single JSON object of the form {"correctedArgs": {...}} and nothing else. ` +
	`Keep every argument that was already valid; change only what the validation error requires.`

// RepairCoordinator asks the completion client to correct arguments that
// failed schema validation. At most one repair round-trip happens per
// step; the caller re-validates the corrected arguments and treats a
// second failure as terminal.
type RepairCoordinator struct {
	completer llm.Completer
	registry  *tools.Registry
	log       logger.Logger
}

// NewRepairCoordinator creates a coordinator using the given completer.
func NewRepairCoordinator(completer llm.Completer, registry *tools.Registry, log logger.Logger) *RepairCoordinator {
	if log == nil {
		log = logger.Default()
	}
	return &RepairCoordinator{completer: completer, registry: registry, log: log}
}

// Repair builds the correction request and returns the model's corrected
// arguments. A nil completer, empty completion, or unparseable response is
// an error; the caller treats it as a terminal validation failure.
func (r *RepairCoordinator) Repair(
	ctx context.Context,
	run *entity.Run,
	step *entity.Step,
	invalidArgs map[string]interface{},
	validationErr string,
) (map[string]interface{}, error) {
	if r.completer == nil {
		return nil, fmt.Errorf("no completion client configured for argument repair")
	}

	prompt, err := r.buildPrompt(run, step, invalidArgs, validationErr)
	if err != nil {
		return nil, err
	}

	r.log.Infof("[Repair] attempting argument repair for step %s (tool=%s)", step.ID, step.Call.Name)

	resp, err := r.completer.CompleteJSON(ctx, repairSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("repair completion for step %s: %w", step.ID, err)
	}

	corrected, ok := resp["correctedArgs"].(map[string]interface{})
	if !ok {
		// Some models return the bare argument object without the
		// wrapper. Accept it as long as the wrapper key is absent.
		if _, present := resp["correctedArgs"]; present {
			return nil, fmt.Errorf("repair response for step %s: correctedArgs is not an object", step.ID)
		}
		corrected = resp
	}
	return corrected, nil
}

func (r *RepairCoordinator) buildPrompt(
	run *entity.Run,
	step *entity.Step,
	invalidArgs map[string]interface{},
	validationErr string,
) (string, error) {
	schemaText := "(no schema registered)"
	if raw, err := r.registry.SchemaFor(step.Call.Name); err == nil {
		schemaText = string(raw)
	}

	priorText := "no prior data"
	if prior := run.LastSettledStep(-1); prior != nil && prior.Result != nil {
		if s, err := json.MarshalString(prior.Result.Payload); err == nil {
			priorText = s
		}
	}

	argsText, err := json.MarshalString(invalidArgs)
	if err != nil {
		return "", fmt.Errorf("marshal invalid arguments: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user's goal: %s\n\n", run.Request)
	fmt.Fprintf(&b, "Tool %q argument schema:\n%s\n\n", step.Call.Name, schemaText)
	fmt.Fprintf(&b, "Result of the previous step:\n%s\n\n", priorText)
	fmt.Fprintf(&b, "Arguments that failed validation:\n%s\n\n", argsText)
	fmt.Fprintf(&b, "Validation error:\n%s\n", validationErr)
	return b.String(), nil
}
