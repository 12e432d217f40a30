package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/kestrad/planchette/internal/planchette/service/plans/pkg/errno"
	"github.com/kestrad/planchette/pkg/logger"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// Completer is the single model-assisted completion capability: one
// single-shot, non-streaming, JSON-only request. Argument repair, the
// follow-up bridge, and the planner all go through it; they differ only
// in prompt construction and in whether a failure is fatal to their
// caller.
type Completer interface {
	CompleteJSON(ctx context.Context, system, prompt string) (map[string]interface{}, error)
}

// Client implements Completer over an Eino chat model with a fixed low
// sampling temperature and a hard output token ceiling.
type Client struct {
	cm          model.BaseChatModel
	temperature float32
	maxTokens   int
	log         logger.Logger
}

// NewClient creates a completion client.
func NewClient(cm model.BaseChatModel, temperature float32, maxTokens int, log logger.Logger) *Client {
	if log == nil {
		log = logger.Default()
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Client{cm: cm, temperature: temperature, maxTokens: maxTokens, log: log}
}

// CompleteJSON sends one completion request and parses the response
// strictly as a JSON object.
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string) (map[string]interface{}, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompt),
	}

	resp, err := c.cm.Generate(ctx, msgs,
		model.WithTemperature(c.temperature),
		model.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, errno.ErrNoCompletion
	}

	content := stripCodeFence(resp.Content)

	var out map[string]interface{}
	if err := json.UnmarshalString(content, &out); err != nil {
		c.log.Warnf("[Completion] response is not valid JSON: %v", err)
		return nil, fmt.Errorf("%w: %v", errno.ErrMalformedResponse, err)
	}
	return out, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// emit even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
