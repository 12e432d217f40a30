package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePassesValidArguments(t *testing.T) {
	v := NewSchemaValidator(newTestRegistry(t), nil)

	err := v.Validate("send_email", map[string]interface{}{
		"to":      "ada@acme.io",
		"subject": "Hello",
		"body":    "Hi there",
	})
	require.NoError(t, err)
}

func TestValidateMissingRequiredField(t *testing.T) {
	v := NewSchemaValidator(newTestRegistry(t), nil)

	err := v.Validate("send_email", map[string]interface{}{
		"to": "ada@acme.io",
	})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	require.Equal(t, "send_email", verr.Tool)
	require.Contains(t, verr.Message, "subject")
	require.Contains(t, verr.Error(), `invalid arguments for tool "send_email"`)
}

func TestValidateWrongType(t *testing.T) {
	v := NewSchemaValidator(newTestRegistry(t), nil)

	err := v.Validate("send_email", map[string]interface{}{
		"to":      float64(12),
		"subject": "Hello",
	})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, verr.Message, "to")
}

func TestValidateUnknownToolPasses(t *testing.T) {
	v := NewSchemaValidator(newTestRegistry(t), nil)

	err := v.Validate("no_such_tool", map[string]interface{}{"anything": "goes"})
	require.NoError(t, err)
}

func TestValidateAdditionalPropertyRejected(t *testing.T) {
	v := NewSchemaValidator(newTestRegistry(t), nil)

	err := v.Validate("send_email", map[string]interface{}{
		"to":      "ada@acme.io",
		"subject": "Hello",
		"extra":   "nope",
	})
	require.Error(t, err)
}

func TestValidateAggregatesAllViolations(t *testing.T) {
	v := NewSchemaValidator(newTestRegistry(t), nil)

	err := v.Validate("send_email", map[string]interface{}{
		"to":    float64(12),
		"extra": "nope",
	})
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	// One aggregated message carries every leaf violation.
	require.Contains(t, verr.Message, ";")
}
