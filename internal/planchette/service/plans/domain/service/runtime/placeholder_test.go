package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

func TestResolveWholeValueKeepsNativeType(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"records": []interface{}{
			map[string]interface{}{"id": float64(42), "name": "Acme"},
		},
		"count": float64(1),
	}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"record_id": "{{stepA.records[0].id}}",
		"count":     "{{stepA.count}}",
		"record":    "{{stepA.records[0]}}",
	}, run)

	require.True(t, resolved)
	require.Equal(t, float64(42), args["record_id"])
	require.Equal(t, float64(1), args["count"])
	require.Equal(t, map[string]interface{}{"id": float64(42), "name": "Acme"}, args["record"])
}

func TestResolveEmbeddedStringifies(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"name":  "Acme",
		"count": float64(3),
	}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"subject": "Update on {{stepA.name}} ({{stepA.count}} records)",
	}, run)

	require.True(t, resolved)
	require.Equal(t, "Update on Acme (3 records)", args["subject"])
}

func TestResolveEmbeddedStructuredValueRendersCompactJSON(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"contact": map[string]interface{}{"name": "Ada"},
	}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"body": "Contact: {{stepA.contact}}",
	}, run)

	require.True(t, resolved)
	require.Equal(t, `Contact: {"name":"Ada"}`, args["body"])
}

func TestResolveDropsLeadingResultSegment(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"records": []interface{}{
			map[string]interface{}{"id": "rec-7"},
		},
	}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"record_id": "{{stepA.result.records[0].id}}",
	}, run)

	require.True(t, resolved)
	require.Equal(t, "rec-7", args["record_id"])
}

func TestResolveUnknownStepLeftVerbatim(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{"id": "x"}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"record_id": "{{missing.id}}",
	}, run)

	require.False(t, resolved)
	require.Equal(t, "{{missing.id}}", args["record_id"])
}

func TestResolveStepWithoutResultLeftVerbatim(t *testing.T) {
	run := newTestRun(pendingStep("stepA", "fetch_crm_records", nil))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"record_id": "{{stepA.id}}",
	}, run)

	require.False(t, resolved)
	require.Equal(t, "{{stepA.id}}", args["record_id"])
}

func TestResolveDeadPathLeftVerbatim(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"records": []interface{}{},
	}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"record_id": "{{stepA.records[0].id}}",
		"other":     "x {{stepA.nope}} y",
	}, run)

	require.False(t, resolved)
	require.Equal(t, "{{stepA.records[0].id}}", args["record_id"])
	require.Equal(t, "x {{stepA.nope}} y", args["other"])
}

func TestResolveWalksNestedStructures(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"email": "ada@acme.io",
	}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"attendees": []interface{}{"{{stepA.email}}", "bob@acme.io"},
		"meta": map[string]interface{}{
			"organizer": "{{stepA.email}}",
		},
	}, run)

	require.True(t, resolved)
	require.Equal(t, []interface{}{"ada@acme.io", "bob@acme.io"}, args["attendees"])
	require.Equal(t, "ada@acme.io", args["meta"].(map[string]interface{})["organizer"])
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"email": "ada@acme.io",
	}))

	in := map[string]interface{}{
		"to":   "{{stepA.email}}",
		"meta": map[string]interface{}{"cc": "{{stepA.email}}"},
	}
	resolver := NewPlaceholderResolver(nil)
	out, _ := resolver.Resolve(in, run)

	require.Equal(t, "ada@acme.io", out["to"])
	require.Equal(t, "{{stepA.email}}", in["to"])
	require.Equal(t, "{{stepA.email}}", in["meta"].(map[string]interface{})["cc"])
}

func TestResolveNonStringValuesPassThrough(t *testing.T) {
	run := newTestRun()

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"limit":  float64(10),
		"dryRun": true,
		"note":   nil,
	}, run)

	require.False(t, resolved)
	require.Equal(t, float64(10), args["limit"])
	require.Equal(t, true, args["dryRun"])
	require.Nil(t, args["note"])
}

func TestParseRefRejectsMalformedExpressions(t *testing.T) {
	for _, inner := range []string{"", "  ", ".path"} {
		_, err := ParseRef("{{"+inner+"}}", inner)
		require.Error(t, err, "inner=%q", inner)
	}

	ref, err := ParseRef("{{stepA}}", "stepA")
	require.NoError(t, err)
	require.Equal(t, "stepA", ref.StepID)
	require.Empty(t, ref.Path)
}

func TestParseRefBracketPaths(t *testing.T) {
	ref, err := ParseRef("{{stepA.items[2][0].name}}", "stepA.items[2][0].name")
	require.NoError(t, err)
	require.Equal(t, "stepA", ref.StepID)
	require.Equal(t, []PathSegment{
		{Key: "items"},
		{Index: 2, IsIndex: true},
		{Index: 0, IsIndex: true},
		{Key: "name"},
	}, ref.Path)
}

func TestResolveWholeValueEmbeddedInWhitespace(t *testing.T) {
	run := newTestRun(completedStep("stepA", "fetch_crm_records", map[string]interface{}{
		"count": float64(5),
	}))

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"count": "  {{stepA.count}}  ",
	}, run)

	// Surrounding whitespace still counts as a whole-value reference.
	require.True(t, resolved)
	require.Equal(t, float64(5), args["count"])
}

func TestResolveOnlyUsesCompletedSteps(t *testing.T) {
	failed := pendingStep("stepA", "fetch_crm_records", nil)
	failed.Status = entity.StepStatusFailed
	failed.Result = &entity.ToolResult{Status: entity.ToolResultFailed, Error: "nope"}

	run := newTestRun(failed)

	resolver := NewPlaceholderResolver(nil)
	args, resolved := resolver.Resolve(map[string]interface{}{
		"id": "{{stepA.id}}",
	}, run)

	require.False(t, resolved)
	require.Equal(t, "{{stepA.id}}", args["id"])
}
