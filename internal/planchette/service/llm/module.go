package llm

import (
	"context"
	"fmt"

	"github.com/kestrad/planchette/internal/pkg/options"
	"github.com/kestrad/planchette/internal/planchette/service/llm/provider"
	"github.com/kestrad/planchette/pkg/logger"
)

// Config holds the configuration for the LLM module.
type Config struct {
	ModelOptions *options.ModelOptions
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.ModelOptions == nil {
		c.ModelOptions = options.NewModelOptions()
	}
	return CompletedConfig{c}
}

// Module is the LLM module. It exposes the single completion capability
// shared by the planner, the repair coordinator, and the follow-up
// bridge.
type Module struct {
	Completer Completer
}

// New creates and initializes the LLM module from a completed config.
func (c CompletedConfig) New(ctx context.Context) (*Module, error) {
	opts := c.ModelOptions

	providerName := opts.DefaultProvider
	cfg := opts.Providers[providerName]

	cm, err := provider.BuildChatModel(ctx, providerName, cfg, opts.DefaultModel)
	if err != nil {
		return nil, fmt.Errorf("build chat model for provider %q: %w", providerName, err)
	}

	logger.Info("[LLM] module initialized (provider=%s, temperature=%.2f, max_tokens=%d)",
		providerName, opts.Temperature, opts.MaxTokens)

	return &Module{
		Completer: NewClient(cm, opts.Temperature, opts.MaxTokens, logger.Default()),
	}, nil
}
