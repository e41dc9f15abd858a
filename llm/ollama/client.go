package ollama

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/aschepis/backscratcher/multichat/llm"
)

// OllamaClient talks to a local Ollama daemon through its Go API client.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient connects to host, which may omit the scheme. An empty host
// defers to OLLAMA_HOST and then Ollama's default address.
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return &OllamaClient{client: client, model: model}, nil
	}

	baseURL, err := parseHost(host)
	if err != nil {
		return nil, fmt.Errorf("invalid host: %w", err)
	}
	return &OllamaClient{client: api.NewClient(baseURL, http.DefaultClient), model: model}, nil
}

// parseHost defaults a bare host:port to http.
func parseHost(host string) (*url.URL, error) {
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Synchronous runs one non-streaming chat call.
func (c *OllamaClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, errors.New("request is required")
	}
	model := cmp.Or(req.Model, c.model)
	if model == "" {
		return nil, errors.New("model is required")
	}

	options := map[string]any{}
	if req.MaxTokens > 0 {
		options["num_predict"] = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	stream := false

	var final api.ChatResponse
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: ToOllamaMessages(req.System, req.Messages),
		Stream:   &stream,
		Options:  options,
	}, func(resp api.ChatResponse) error {
		final = resp
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return nil, llm.NewStatusError(statusErr.StatusCode, "ollama chat request failed", err)
		}
		return nil, llm.NewUnreachableError("ollama unreachable", err)
	}

	return FromChatResponse(final), nil
}

var _ llm.Client = (*OllamaClient)(nil)
