package config

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/multichat/llm"
)

const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.7
)

type providerKind int

const (
	kindOpenAICompatible providerKind = iota
	kindAnthropic
	kindGemini
)

// providerInfo describes one hosted provider: its route, display name,
// defaults and the SDK family that reaches it.
type providerInfo struct {
	route          string
	name           string
	kind           providerKind
	defaultModel   string
	defaultBaseURL string
	config         func(*ServerConfig) *ProviderConfig
}

// providerTable lists the hosted providers in registration order.
var providerTable = []providerInfo{
	{
		route: llm.ProviderGPT, name: "ChatGPT", kind: kindOpenAICompatible,
		defaultModel: "gpt-4o-mini",
		config:       func(c *ServerConfig) *ProviderConfig { return &c.OpenAI },
	},
	{
		route: llm.ProviderGemini, name: "Gemini", kind: kindGemini,
		defaultModel: "gemini-2.0-flash",
		config:       func(c *ServerConfig) *ProviderConfig { return &c.Gemini },
	},
	{
		route: llm.ProviderClaude, name: "Claude", kind: kindAnthropic,
		defaultModel: "claude-3-5-haiku-latest",
		config:       func(c *ServerConfig) *ProviderConfig { return &c.Claude },
	},
	{
		route: llm.ProviderGrok, name: "Grok", kind: kindOpenAICompatible,
		defaultModel: "grok-3-mini", defaultBaseURL: "https://api.x.ai/v1",
		config: func(c *ServerConfig) *ProviderConfig { return &c.Grok },
	},
	{
		route: llm.ProviderDeepSeek, name: "Deepseek", kind: kindOpenAICompatible,
		defaultModel: "deepseek-chat", defaultBaseURL: "https://api.deepseek.com",
		config: func(c *ServerConfig) *ProviderConfig { return &c.DeepSeek },
	},
	{
		route: llm.ProviderMistral, name: "Mistral", kind: kindOpenAICompatible,
		defaultModel: "mistral-small-latest", defaultBaseURL: "https://api.mistral.ai/v1",
		config: func(c *ServerConfig) *ProviderConfig { return &c.Mistral },
	},
	{
		route: llm.ProviderLlama, name: "Llama", kind: kindOpenAICompatible,
		defaultModel: "meta-llama/Llama-3.3-70B-Instruct-Turbo", defaultBaseURL: "https://api.together.xyz/v1",
		config: func(c *ServerConfig) *ProviderConfig { return &c.Llama },
	},
	{
		route: llm.ProviderQwen, name: "Qwen", kind: kindOpenAICompatible,
		defaultModel: "Qwen/Qwen2.5-72B-Instruct-Turbo", defaultBaseURL: "https://api.together.xyz/v1",
		config: func(c *ServerConfig) *ProviderConfig { return &c.Qwen },
	},
}

// BuildRegistry creates one ChatClient per provider. Providers without an
// API key are registered unconfigured so that calls to them fail before
// reaching the network. Ollama is registered only when a model is set.
// Every SDK client is wrapped with the logging middleware.
func BuildRegistry(ctx context.Context, cfg *ServerConfig, logger zerolog.Logger) (*llm.Registry, error) {
	var (
		clients []*llm.ChatClient
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close() //nolint:errcheck // Best effort on a failed build
		}
	}

	for _, p := range providerTable {
		pc := p.config(cfg)

		var client llm.Client
		if pc.APIKey != "" {
			var (
				closer io.Closer
				err    error
			)
			switch p.kind {
			case kindAnthropic:
				client, err = newAnthropicClient(pc, logger)
			case kindGemini:
				client, closer, err = newGeminiClient(ctx, pc)
			default:
				client, err = newOpenAIClient(pc)
			}
			if err != nil {
				closeAll()
				return nil, fmt.Errorf("failed to create %s client: %w", p.name, err)
			}
			if closer != nil {
				closers = append(closers, closer)
			}
			client = llm.Chain(client, llm.WithLogging(logger, p.route))
		} else {
			logger.Debug().Str("provider", p.route).Msg("No API key, provider not configured")
		}

		clients = append(clients, llm.NewChatClient(p.route, p.name, pc.Model, pc.MaxTokens, pc.Temperature, client))
	}

	if cfg.Ollama.Model != "" {
		base, err := newOllamaClient(&cfg.Ollama)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		clients = append(clients, llm.NewChatClient(llm.ProviderOllama, "Ollama ("+cfg.Ollama.Model+")",
			cfg.Ollama.Model, cfg.Ollama.MaxTokens, cfg.Ollama.Temperature,
			llm.Chain(base, llm.WithLogging(logger, llm.ProviderOllama))))
	}

	registry, err := llm.NewRegistry(clients, closers...)
	if err != nil {
		closeAll()
		return nil, err
	}

	configured := 0
	for _, route := range registry.Providers() {
		if registry.IsProviderConfigured(route) {
			configured++
		}
	}
	logger.Info().
		Int("providers", len(clients)).
		Int("configured", configured).
		Msg("LLM providers registered")

	return registry, nil
}
