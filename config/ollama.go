package config

import (
	llmollama "github.com/aschepis/backscratcher/multichat/llm/ollama"
)

// newOllamaClient creates the local Ollama client from the configuration.
func newOllamaClient(oc *OllamaConfig) (*llmollama.OllamaClient, error) {
	return llmollama.NewOllamaClient(oc.Host, oc.Model)
}
