package config

import (
	llmopenai "github.com/aschepis/backscratcher/multichat/llm/openai"
)

// newOpenAIClient creates a client for any provider that speaks the OpenAI
// chat completions API. An empty base URL selects api.openai.com.
func newOpenAIClient(pc *ProviderConfig) (*llmopenai.OpenAIClient, error) {
	return llmopenai.NewOpenAIClient(pc.APIKey, pc.BaseURL, pc.Model, pc.Organization)
}
