package llm

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"
)

// Route keys of the providers the service knows about.
const (
	ProviderGPT      = "gpt"
	ProviderGemini   = "gemini"
	ProviderClaude   = "claude"
	ProviderGrok     = "grok"
	ProviderDeepSeek = "deepseek"
	ProviderMistral  = "mistral"
	ProviderLlama    = "llama"
	ProviderQwen     = "qwen"
	ProviderOllama   = "ollama"
)

// Registry holds the ChatClient of every provider. It is built once at
// startup and is safe for concurrent use because it is never mutated.
type Registry struct {
	order   []string
	clients map[string]*ChatClient
	closers []io.Closer
}

// NewRegistry creates a Registry from clients in registration order.
// closers are released by Close, for SDK clients that hold connections.
func NewRegistry(clients []*ChatClient, closers ...io.Closer) (*Registry, error) {
	r := &Registry{
		clients: make(map[string]*ChatClient, len(clients)),
		closers: closers,
	}
	for _, c := range clients {
		if c == nil {
			continue
		}
		if _, dup := r.clients[c.Provider]; dup {
			return nil, fmt.Errorf("provider %q registered twice", c.Provider)
		}
		r.clients[c.Provider] = c
		r.order = append(r.order, c.Provider)
	}
	return r, nil
}

// Get returns the ChatClient for a provider route.
func (r *Registry) Get(provider string) (*ChatClient, bool) {
	c, ok := r.clients[provider]
	return c, ok
}

// Providers returns the provider routes in registration order.
func (r *Registry) Providers() []string {
	return slices.Clone(r.order)
}

// IsProviderConfigured checks if a provider is registered and has credentials.
func (r *Registry) IsProviderConfigured(provider string) bool {
	c, ok := r.clients[provider]
	return ok && c.Configured()
}

// ModelsFor maps provider routes or display names to model identifiers.
// Names that match no provider are assumed to be model identifiers already.
func (r *Registry) ModelsFor(names []string) []string {
	return lo.Map(names, func(name string, _ int) string {
		if c, ok := r.clients[name]; ok {
			return c.Model
		}
		for _, c := range r.clients {
			if c.Name == name {
				return c.Model
			}
		}
		return name
	})
}

// Close releases the SDK clients that need it.
func (r *Registry) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
