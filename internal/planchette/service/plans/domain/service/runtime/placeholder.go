package runtime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// placeholderPattern matches a single non-nested {{...}} expression.
// Compiled once; the resolver never re-parses the grammar per call.
var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// segmentPattern splits one dotted path segment into a name plus zero or
// more [index] suffixes, e.g. "records[0]".
var segmentPattern = regexp.MustCompile(`^([^\[\]]*)((?:\[\d+\])*)$`)

// PathSegment is one step of a placeholder path: either a map key or an
// array index.
type PathSegment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Ref is one parsed placeholder reference: the step it points at plus the
// path into that step's result payload.
type Ref struct {
	// StepID is the referenced step identifier.
	StepID string

	// Path is the traversal into the step's result payload. A leading
	// "result" segment in the source text is dropped during parsing.
	Path []PathSegment

	// Raw is the original expression text including braces, kept so an
	// unresolved reference can be left verbatim in the output.
	Raw string
}

// ParseRef parses the inner text of a {{...}} expression.
func ParseRef(raw, inner string) (*Ref, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, fmt.Errorf("empty placeholder expression")
	}

	stepID, rest, _ := strings.Cut(inner, ".")
	if stepID == "" {
		return nil, fmt.Errorf("placeholder %q has no step id", raw)
	}

	segs, err := parsePath(rest)
	if err != nil {
		return nil, fmt.Errorf("placeholder %q: %w", raw, err)
	}

	// A leading "result" segment is prompt-author ergonomics, not part of
	// the payload structure.
	if len(segs) > 0 && !segs[0].IsIndex && segs[0].Key == "result" {
		segs = segs[1:]
	}

	return &Ref{StepID: stepID, Path: segs, Raw: raw}, nil
}

// parsePath expands "a.b[0].c" into its ordered segments.
func parsePath(path string) ([]PathSegment, error) {
	if path == "" {
		return nil, nil
	}
	var segs []PathSegment
	for _, part := range strings.Split(path, ".") {
		m := segmentPattern.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("malformed path segment %q", part)
		}
		if m[1] != "" {
			segs = append(segs, PathSegment{Key: m[1]})
		}
		for _, idx := range strings.Split(m[2], "[") {
			idx = strings.TrimSuffix(idx, "]")
			if idx == "" {
				continue
			}
			n, err := strconv.Atoi(idx)
			if err != nil {
				return nil, fmt.Errorf("malformed index in segment %q", part)
			}
			segs = append(segs, PathSegment{Index: n, IsIndex: true})
		}
	}
	return segs, nil
}

// Resolution is the outcome of resolving one placeholder. Unresolved
// references keep their original text so the caller's leniency decision
// stays explicit.
type Resolution struct {
	Value    interface{}
	Resolved bool
	Original string
}

// PlaceholderResolver substitutes {{stepId.path}} references in a step's
// argument tree with values taken from earlier step results.
type PlaceholderResolver struct {
	log logger.Logger
}

// NewPlaceholderResolver creates a resolver with the given logger.
func NewPlaceholderResolver(log logger.Logger) *PlaceholderResolver {
	if log == nil {
		log = logger.Default()
	}
	return &PlaceholderResolver{log: log}
}

// Resolve walks the argument tree and substitutes every placeholder it can
// resolve against the run's completed steps. The input tree is never
// mutated; the returned tree is freshly built. The boolean reports whether
// at least one reference resolved, so narration can say the step uses data
// from a previous step.
//
// Unresolvable references (unknown step, absent payload, dead path) are
// left verbatim and logged as warnings. The step still executes.
func (p *PlaceholderResolver) Resolve(args map[string]interface{}, run *entity.Run) (map[string]interface{}, bool) {
	anyResolved := false
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = p.resolveValue(v, run, &anyResolved)
	}
	return out, anyResolved
}

func (p *PlaceholderResolver) resolveValue(v interface{}, run *entity.Run, anyResolved *bool) interface{} {
	switch val := v.(type) {
	case string:
		return p.resolveString(val, run, anyResolved)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			out[k] = p.resolveValue(child, run, anyResolved)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = p.resolveValue(child, run, anyResolved)
		}
		return out
	default:
		return v
	}
}

// resolveString handles one string leaf. A string that is exactly one
// placeholder keeps the native type of the referenced value; embedded
// placeholders substitute as strings.
func (p *PlaceholderResolver) resolveString(s string, run *entity.Run, anyResolved *bool) interface{} {
	trimmed := strings.TrimSpace(s)
	if m := placeholderPattern.FindStringSubmatch(trimmed); m != nil && m[0] == trimmed {
		res := p.lookup(m[0], m[1], run)
		if res.Resolved {
			*anyResolved = true
			return res.Value
		}
		return s
	}

	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := placeholderPattern.FindStringSubmatch(match)[1]
		res := p.lookup(match, inner, run)
		if !res.Resolved {
			return res.Original
		}
		*anyResolved = true
		return stringify(res.Value)
	})
}

// lookup resolves one reference against the run. It never fails the step;
// every miss comes back as an unresolved Resolution.
func (p *PlaceholderResolver) lookup(raw, inner string, run *entity.Run) Resolution {
	unresolved := Resolution{Original: raw}

	ref, err := ParseRef(raw, inner)
	if err != nil {
		p.log.Warnf("[Resolver] %v, leaving verbatim", err)
		return unresolved
	}

	step := run.StepByID(ref.StepID)
	if step == nil {
		p.log.Warnf("[Resolver] placeholder %q references unknown step %q, leaving verbatim", raw, ref.StepID)
		return unresolved
	}
	if step.Result == nil || step.Result.Payload == nil {
		p.log.Warnf("[Resolver] placeholder %q references step %q which has no result payload, leaving verbatim", raw, ref.StepID)
		return unresolved
	}

	val, ok := traverse(step.Result.Payload, ref.Path)
	if !ok {
		p.log.Warnf("[Resolver] placeholder %q path not found in step %q result, leaving verbatim", raw, ref.StepID)
		return unresolved
	}
	return Resolution{Value: val, Resolved: true}
}

// traverse walks a decoded JSON value along the parsed path.
func traverse(v interface{}, path []PathSegment) (interface{}, bool) {
	cur := v
	for _, seg := range path {
		if seg.IsIndex {
			arr, ok := cur.([]interface{})
			if !ok || seg.Index < 0 || seg.Index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.Index]
			continue
		}
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg.Key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringify renders a resolved value for embedding inside a larger string.
// Structured values render as compact JSON.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case map[string]interface{}, []interface{}:
		s, err := json.MarshalString(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return s
	default:
		return fmt.Sprintf("%v", val)
	}
}
