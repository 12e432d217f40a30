package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/kestrad/planchette/pkg/utils/json"
)

// CreateEventSchema is the argument schema for the create_event tool.
const CreateEventSchema = `{
  "type": "object",
  "properties": {
    "title":     {"type": "string", "description": "Event title"},
    "start":     {"type": "string", "format": "date-time", "description": "Start time, RFC 3339"},
    "end":       {"type": "string", "format": "date-time", "description": "End time, RFC 3339"},
    "attendees": {"type": "array", "items": {"type": "string"}, "description": "Attendee email addresses"}
  },
  "required": ["title", "start"],
  "additionalProperties": false
}`

// CreateEventTool creates a calendar event.
type CreateEventTool struct{}

var _ tool.InvokableTool = (*CreateEventTool)(nil)

func (t *CreateEventTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "create_event",
		Desc: "Create a calendar event with optional attendees.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {Type: schema.String, Desc: "Event title", Required: true},
			"start": {Type: schema.String, Desc: "Start time, RFC 3339", Required: true},
			"end":   {Type: schema.String, Desc: "End time, RFC 3339"},
			"attendees": {
				Type:     schema.Array,
				Desc:     "Attendee email addresses",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
			},
		}),
	}, nil
}

func (t *CreateEventTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Title     string   `json:"title"`
		Start     string   `json:"start"`
		End       string   `json:"end"`
		Attendees []string `json:"attendees"`
	}
	if err := json.UnmarshalString(argumentsInJSON, &args); err != nil {
		return "", fmt.Errorf("create_event: parse arguments: %w", err)
	}
	if _, err := time.Parse(time.RFC3339, args.Start); err != nil {
		return "", fmt.Errorf("create_event: invalid start time %q: %w", args.Start, err)
	}

	return json.MarshalString(map[string]interface{}{
		"eventId":   "evt-" + uuid.New().String()[:8],
		"title":     args.Title,
		"start":     args.Start,
		"attendees": args.Attendees,
	})
}
