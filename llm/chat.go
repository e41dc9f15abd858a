package llm

import (
	"context"
	"fmt"
)

const defaultSystemPrompt = "You are a highly intelligent, helpful assistant. Provide a concise answer under %d words."

// ChatClient is one configured provider: a model identifier with its token
// budget and temperature, bound to the Client that reaches it. A ChatClient
// without a Client is not configured and fails every call before touching
// the network.
type ChatClient struct {
	Provider    string // Route key, e.g. "gpt"
	Name        string // Display name, e.g. "ChatGPT"
	Model       string
	MaxTokens   int64
	Temperature float64

	client Client
}

// NewChatClient creates a ChatClient. client may be nil when the provider
// has no credentials.
func NewChatClient(provider, name, model string, maxTokens int64, temperature float64, client Client) *ChatClient {
	return &ChatClient{
		Provider:    provider,
		Name:        name,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		client:      client,
	}
}

// Configured reports whether the provider can be called.
func (c *ChatClient) Configured() bool {
	return c.client != nil
}

// SystemPrompt returns the default instruction, which caps the answer at
// three quarters of the token budget in words.
func (c *ChatClient) SystemPrompt() string {
	return fmt.Sprintf(defaultSystemPrompt, int(float64(c.MaxTokens)*0.75))
}

// BuildRequest assembles the provider request: the earlier turns as
// alternating user and assistant messages, oldest first, followed by the
// new prompt. An empty system prompt selects SystemPrompt.
func (c *ChatClient) BuildRequest(systemPrompt, userPrompt string, history []Turn) *Request {
	if systemPrompt == "" {
		systemPrompt = c.SystemPrompt()
	}

	messages := make([]Message, 0, len(history)*2+1)
	for _, turn := range history {
		messages = append(messages,
			NewMessage(RoleUser, turn.User),
			NewMessage(RoleAssistant, turn.Assistant),
		)
	}
	messages = append(messages, NewMessage(RoleUser, userPrompt))

	temperature := c.Temperature
	return &Request{
		Model:       c.Model,
		System:      systemPrompt,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: &temperature,
	}
}

// GetReply sends the prompt with its history and returns the normalized
// reply. The call is made once; failures are returned as *Error.
func (c *ChatClient) GetReply(ctx context.Context, systemPrompt, userPrompt string, history []Turn) (string, error) {
	if !c.Configured() {
		return "", NewNotConfiguredError(c.Name)
	}

	resp, err := c.client.Synchronous(ctx, c.BuildRequest(systemPrompt, userPrompt, history))
	if err != nil {
		return "", attribute(c.Name, err)
	}

	reply := ReplyText(resp)
	if reply == "" {
		return "", &Error{Kind: KindEmptyReply, Provider: c.Name, Msg: c.Name + " returned an empty reply"}
	}
	return reply, nil
}
