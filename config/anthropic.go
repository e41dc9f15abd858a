package config

import (
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	llmanthropic "github.com/aschepis/backscratcher/multichat/llm/anthropic"
)

// newAnthropicClient creates the Claude client from the configuration.
func newAnthropicClient(pc *ProviderConfig, logger zerolog.Logger) (*llmanthropic.AnthropicClient, error) {
	var opts []option.RequestOption
	if pc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(pc.BaseURL))
	}
	return llmanthropic.NewAnthropicClient(pc.APIKey, logger, opts...)
}
