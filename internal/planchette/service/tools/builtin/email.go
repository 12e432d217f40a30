// Package builtin provides the in-tree tool providers: local stand-ins
// for the email, CRM, and calendar gateways that execute without any
// third-party credentials. Deployments replace them by registering MCP
// servers or file definitions under the same tool names.
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

// SendEmailSchema is the argument schema for the send_email tool.
const SendEmailSchema = `{
  "type": "object",
  "properties": {
    "to":      {"type": "string", "description": "Recipient email address"},
    "subject": {"type": "string", "description": "Message subject line"},
    "body":    {"type": "string", "description": "Plain-text message body"}
  },
  "required": ["to", "subject", "body"],
  "additionalProperties": false
}`

// SendEmailTool sends an email through the configured mail gateway.
type SendEmailTool struct{}

var _ tool.InvokableTool = (*SendEmailTool)(nil)

func (t *SendEmailTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "send_email",
		Desc: "Send an email to a single recipient.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"to":      {Type: schema.String, Desc: "Recipient email address", Required: true},
			"subject": {Type: schema.String, Desc: "Message subject line", Required: true},
			"body":    {Type: schema.String, Desc: "Plain-text message body", Required: true},
		}),
	}, nil
}

func (t *SendEmailTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.UnmarshalString(argumentsInJSON, &args); err != nil {
		return "", fmt.Errorf("send_email: parse arguments: %w", err)
	}
	if args.To == "" {
		return "", fmt.Errorf("send_email: recipient is empty")
	}

	return json.MarshalString(map[string]interface{}{
		"messageId": "msg-" + uuid.New().String()[:8],
		"to":        args.To,
		"subject":   args.Subject,
		"sentAt":    time.Now().UTC().Format(time.RFC3339),
	})
}
