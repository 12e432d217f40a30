package runtime

import (
	"errors"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// ValidationError is the single aggregated error raised when a tool's
// arguments violate its schema. Its message is consumed verbatim by the
// repair coordinator and, on final failure, surfaced to the user.
type ValidationError struct {
	Tool    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Message)
}

// Validator checks a tool call's arguments against the tool's declarative
// schema.
type Validator interface {
	Validate(toolName string, args map[string]interface{}) error
}

// schemaValidator validates against the compiled JSON Schemas held by the
// tool registry.
type schemaValidator struct {
	registry *tools.Registry
	log      logger.Logger
}

// NewSchemaValidator creates a Validator backed by the tool registry.
func NewSchemaValidator(registry *tools.Registry, log logger.Logger) Validator {
	if log == nil {
		log = logger.Default()
	}
	return &schemaValidator{registry: registry, log: log}
}

// Validate checks args against the schema registered for toolName. A tool
// without a registered schema passes; dispatch will reject an unknown tool
// later anyway.
func (v *schemaValidator) Validate(toolName string, args map[string]interface{}) error {
	def, err := v.registry.Get(toolName)
	if err != nil {
		if errors.Is(err, errno.ErrToolNotFound) {
			v.log.Debugf("[Validator] no schema for tool %q, skipping validation", toolName)
			return nil
		}
		return err
	}
	sch := def.CompiledSchema()
	if sch == nil {
		return nil
	}

	// Round-trip through JSON so the value matches what the schema
	// library expects (map/slice/float64/string/bool/nil).
	doc, err := json.Roundtrip(args)
	if err != nil {
		return &ValidationError{Tool: toolName, Message: fmt.Sprintf("arguments are not serializable: %v", err)}
	}

	if err := sch.Validate(doc); err != nil {
		var ve *sjsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Tool: toolName, Message: aggregate(ve)}
		}
		return &ValidationError{Tool: toolName, Message: err.Error()}
	}
	return nil
}

// aggregate flattens a validation error tree into one "field: reason"
// message per leaf cause, joined with semicolons.
func aggregate(ve *sjsonschema.ValidationError) string {
	var parts []string
	for _, leaf := range flatten(ve) {
		loc := strings.Join(leaf.InstanceLocation, ".")
		if loc == "" {
			loc = "(root)"
		}
		parts = append(parts, fmt.Sprintf("%s: %v", loc, leaf.ErrorKind))
	}
	return strings.Join(parts, "; ")
}

func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flatten(cause)...)
	}
	return flat
}
