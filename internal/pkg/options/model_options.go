package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ModelOptions configures the completion model providers.
type ModelOptions struct {
	// DefaultProvider and DefaultModel select the model used for plan
	// generation, argument repair, and follow-up narration.
	DefaultProvider string `json:"default-provider" mapstructure:"default-provider"`
	DefaultModel    string `json:"default-model"    mapstructure:"default-model"`

	// Providers maps provider ID → provider configuration.
	Providers map[string]*ProviderConfig `json:"providers" mapstructure:"providers"`

	// Temperature is the sampling temperature for completion calls.
	Temperature float32 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens is the hard output token ceiling for completion calls.
	MaxTokens int `json:"max-tokens" mapstructure:"max-tokens"`
}

// ProviderConfig configures one model provider endpoint.
type ProviderConfig struct {
	BaseURL string `json:"base-url" mapstructure:"base-url"`
	APIKey  string `json:"api-key"  mapstructure:"api-key"`
	Model   string `json:"model"    mapstructure:"model"`
}

// NewModelOptions creates ModelOptions with defaults.
func NewModelOptions() *ModelOptions {
	return &ModelOptions{
		DefaultProvider: "openai",
		Providers:       make(map[string]*ProviderConfig),
		Temperature:     0.1,
		MaxTokens:       1024,
	}
}

// Validate checks the options.
func (o *ModelOptions) Validate() []error {
	var errs []error
	if o.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("models.max-tokens must be positive"))
	}
	for id, p := range o.Providers {
		if p.Model == "" {
			errs = append(errs, fmt.Errorf("provider %q: model is required", id))
		}
	}
	return errs
}

// AddFlags registers the model flags.
func (o *ModelOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.DefaultProvider, "models.default-provider", o.DefaultProvider,
		"Provider used for completion calls (openai, anthropic, deepseek, qwen, ollama, gemini).")
	fs.StringVar(&o.DefaultModel, "models.default-model", o.DefaultModel,
		"Model ID used for completion calls.")
	fs.Float32Var(&o.Temperature, "models.temperature", o.Temperature,
		"Sampling temperature for completion calls.")
	fs.IntVar(&o.MaxTokens, "models.max-tokens", o.MaxTokens,
		"Output token ceiling for completion calls.")
}
