package builtin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/kestrad/planchette/pkg/utils/json"
)

// FetchRecordsSchema is the argument schema for the fetch_records tool.
const FetchRecordsSchema = `{
  "type": "object",
  "properties": {
    "entity": {"type": "string", "enum": ["contact", "company", "deal"], "description": "CRM entity type to query"},
    "query":  {"type": "string", "description": "Free-text filter applied to record names"},
    "limit":  {"type": "integer", "minimum": 1, "maximum": 50, "description": "Maximum number of records"}
  },
  "required": ["entity"],
  "additionalProperties": false
}`

// SendUpdateSchema is the argument schema for the send_update tool.
const SendUpdateSchema = `{
  "type": "object",
  "properties": {
    "targetId": {"type": "string", "description": "Identifier of the record to update"},
    "fields":   {"type": "object", "description": "Field values to write"}
  },
  "required": ["targetId", "fields"],
  "additionalProperties": false
}`

// crmStore is a tiny shared fixture backing the local CRM tools.
var crmStore = struct {
	mu      sync.Mutex
	records []map[string]interface{}
}{
	records: []map[string]interface{}{
		{"id": "42", "entity": "company", "name": "Acme", "owner": "dana@acme.test"},
		{"id": "43", "entity": "company", "name": "Globex", "owner": "lee@globex.test"},
		{"id": "77", "entity": "contact", "name": "Ada Quinn", "email": "ada@acme.test"},
	},
}

// FetchRecordsTool queries CRM records.
type FetchRecordsTool struct{}

var _ tool.InvokableTool = (*FetchRecordsTool)(nil)

func (t *FetchRecordsTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "fetch_records",
		Desc: "Fetch CRM records of a given entity type, optionally filtered by name.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"entity": {Type: schema.String, Desc: "CRM entity type: contact, company or deal", Required: true},
			"query":  {Type: schema.String, Desc: "Free-text filter applied to record names"},
			"limit":  {Type: schema.Integer, Desc: "Maximum number of records"},
		}),
	}, nil
}

func (t *FetchRecordsTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Entity string `json:"entity"`
		Query  string `json:"query"`
		Limit  int    `json:"limit"`
	}
	if err := json.UnmarshalString(argumentsInJSON, &args); err != nil {
		return "", fmt.Errorf("fetch_records: parse arguments: %w", err)
	}
	if args.Limit <= 0 {
		args.Limit = 10
	}

	crmStore.mu.Lock()
	defer crmStore.mu.Unlock()

	matched := make([]map[string]interface{}, 0, args.Limit)
	for _, rec := range crmStore.records {
		if rec["entity"] != args.Entity {
			continue
		}
		if args.Query != "" {
			name, _ := rec["name"].(string)
			if !strings.Contains(strings.ToLower(name), strings.ToLower(args.Query)) {
				continue
			}
		}
		matched = append(matched, rec)
		if len(matched) >= args.Limit {
			break
		}
	}

	return json.MarshalString(map[string]interface{}{"records": matched})
}

// SendUpdateTool writes field values onto a CRM record.
type SendUpdateTool struct{}

var _ tool.InvokableTool = (*SendUpdateTool)(nil)

func (t *SendUpdateTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "send_update",
		Desc: "Update fields on an existing CRM record.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"targetId": {Type: schema.String, Desc: "Identifier of the record to update", Required: true},
			"fields":   {Type: schema.Object, Desc: "Field values to write", Required: true},
		}),
	}, nil
}

func (t *SendUpdateTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		TargetID string                 `json:"targetId"`
		Fields   map[string]interface{} `json:"fields"`
	}
	if err := json.UnmarshalString(argumentsInJSON, &args); err != nil {
		return "", fmt.Errorf("send_update: parse arguments: %w", err)
	}

	crmStore.mu.Lock()
	defer crmStore.mu.Unlock()

	for _, rec := range crmStore.records {
		if rec["id"] == args.TargetID {
			for k, v := range args.Fields {
				rec[k] = v
			}
			return json.MarshalString(map[string]interface{}{
				"updatedId": args.TargetID,
				"updatedAt": time.Now().UTC().Format(time.RFC3339),
			})
		}
	}
	return "", fmt.Errorf("send_update: record %q not found", args.TargetID)
}
