package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/aschepis/backscratcher/multichat/llm"
)

// GeminiClient implements the llm.Client interface for Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new GeminiClient. The returned client holds a
// connection and must be closed.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Synchronous implements llm.Client.Synchronous. Every message but the last
// becomes chat history; the last one is sent.
func (c *GeminiClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	model := c.client.GenerativeModel(req.Model)
	ConfigureModel(model, req)

	history, last := ToGeminiHistory(req.Messages)
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, convertGeminiError(err)
	}

	return FromGeminiResponse(resp)
}

// convertGeminiError maps googleapi failures onto llm errors. Errors
// without a googleapi.Error never reached the API.
func convertGeminiError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return llm.NewUnreachableError("Gemini API unreachable", err)
	}
	return llm.NewStatusError(apiErr.Code, "Gemini API error: "+apiErr.Message, err)
}

var _ llm.Client = (*GeminiClient)(nil)
