package config

import (
	"context"
	"io"

	"google.golang.org/api/option"

	llmgemini "github.com/aschepis/backscratcher/multichat/llm/gemini"
)

// newGeminiClient creates the Gemini client. The client holds a connection,
// so it is returned a second time as the closer the registry releases.
func newGeminiClient(ctx context.Context, pc *ProviderConfig) (*llmgemini.GeminiClient, io.Closer, error) {
	var opts []option.ClientOption
	if pc.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(pc.BaseURL))
	}
	client, err := llmgemini.NewGeminiClient(ctx, pc.APIKey, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}
