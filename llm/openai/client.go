package openai

import (
	"cmp"
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aschepis/backscratcher/multichat/llm"
)

// OpenAIClient speaks the OpenAI chat completions protocol. DeepSeek, Grok,
// Mistral and Together serve the same API under their own base URLs.
type OpenAIClient struct {
	client *openai.Client
	model  string
	label  string // names the endpoint in error messages
}

// NewOpenAIClient returns a client for the chat completions endpoint under
// baseURL, or api.openai.com when baseURL is empty. model is used for
// requests that do not name one.
func NewOpenAIClient(apiKey, baseURL, model, organization string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	config.OrgID = organization
	label := "OpenAI"
	if baseURL != "" {
		config.BaseURL = baseURL
		label = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
		label:  label,
	}, nil
}

// Synchronous sends one chat completion request.
func (c *OpenAIClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	chatReq, err := c.buildRequest(req)
	if err != nil {
		return nil, err
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertOpenAIError(c.label, err)
	}

	return FromOpenAIResponse(chatResp)
}

func (c *OpenAIClient) buildRequest(req *llm.Request) (openai.ChatCompletionRequest, error) {
	if req == nil {
		return openai.ChatCompletionRequest{}, errors.New("request is required")
	}
	model := cmp.Or(req.Model, c.model)
	if model == "" {
		return openai.ChatCompletionRequest{}, errors.New("model is required")
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  ToOpenAIMessages(req.System, req.Messages),
		MaxTokens: int(req.MaxTokens),
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	return chatReq, nil
}

// convertOpenAIError maps go-openai failures onto llm errors. APIError
// carries a decoded error body; RequestError only a status.
func convertOpenAIError(label string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return llm.NewRateLimitError(label+" rate limit: "+apiErr.Message, err)
		}
		return llm.NewStatusError(apiErr.HTTPStatusCode, label+" API error: "+apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.NewStatusError(reqErr.HTTPStatusCode, label+" HTTP error", err)
	}
	return llm.NewUnreachableError(label+" API unreachable", err)
}

var _ llm.Client = (*OpenAIClient)(nil)
