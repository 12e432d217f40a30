// Package provider builds Eino chat models from provider configuration.
package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/gg/gptr"
	einoClaude "github.com/cloudwego/eino-ext/components/model/claude"
	einoDeepseek "github.com/cloudwego/eino-ext/components/model/deepseek"
	einoGemini "github.com/cloudwego/eino-ext/components/model/gemini"
	einoOllama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoOpenAI "github.com/cloudwego/eino-ext/components/model/openai"
	einoQwen "github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/kestrad/planchette/internal/pkg/options"
)

// BuildChatModel constructs a chat model for the named provider. The
// model ID falls back to the provider config's Model when modelID is
// empty, and the API key falls back to the provider's conventional
// environment variable when the config carries none.
func BuildChatModel(ctx context.Context, name string, cfg *options.ProviderConfig, modelID string) (model.BaseChatModel, error) {
	if cfg == nil {
		cfg = &options.ProviderConfig{}
	}
	if modelID == "" {
		modelID = cfg.Model
	}
	if modelID == "" {
		return nil, fmt.Errorf("provider %q: no model configured", name)
	}
	apiKey := resolveAPIKey(name, cfg.APIKey)

	switch strings.ToLower(name) {
	case "openai":
		conf := &einoOpenAI.ChatModelConfig{
			Model:  modelID,
			APIKey: apiKey,
		}
		if cfg.BaseURL != "" {
			conf.BaseURL = cfg.BaseURL
		}
		return einoOpenAI.NewChatModel(ctx, conf)

	case "anthropic":
		conf := &einoClaude.Config{
			APIKey:    apiKey,
			Model:     modelID,
			MaxTokens: 8192,
		}
		if cfg.BaseURL != "" {
			conf.BaseURL = gptr.Of(cfg.BaseURL)
		}
		return einoClaude.NewChatModel(ctx, conf)

	case "deepseek":
		conf := &einoDeepseek.ChatModelConfig{
			APIKey: apiKey,
			Model:  modelID,
		}
		if cfg.BaseURL != "" {
			conf.BaseURL = cfg.BaseURL
		}
		return einoDeepseek.NewChatModel(ctx, conf)

	case "qwen":
		conf := &einoQwen.ChatModelConfig{
			APIKey: apiKey,
			Model:  modelID,
		}
		if cfg.BaseURL != "" {
			conf.BaseURL = cfg.BaseURL
		}
		return einoQwen.NewChatModel(ctx, conf)

	case "ollama":
		conf := &einoOllama.ChatModelConfig{
			BaseURL: "http://127.0.0.1:11434/v1",
			Model:   modelID,
		}
		if cfg.BaseURL != "" {
			conf.BaseURL = cfg.BaseURL
		}
		return einoOllama.NewChatModel(ctx, conf)

	case "gemini":
		clientCfg := &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.BaseURL != "" {
			clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		}
		client, err := genai.NewClient(ctx, clientCfg)
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		return einoGemini.NewChatModel(ctx, &einoGemini.Config{
			Client: client,
			Model:  modelID,
		})

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func resolveAPIKey(provider, configured string) string {
	if configured != "" {
		return configured
	}
	envByProvider := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"deepseek":  "DEEPSEEK_API_KEY",
		"qwen":      "DASHSCOPE_API_KEY",
		"gemini":    "GOOGLE_API_KEY",
	}
	if env, ok := envByProvider[strings.ToLower(provider)]; ok {
		return os.Getenv(env)
	}
	return ""
}
