package llm

import (
	"context"
)

// Client sends one chat request to a provider SDK and returns the complete
// reply. Each call is a single attempt.
type Client interface {
	Synchronous(ctx context.Context, req *Request) (*Response, error)
}

// ClientFunc adapts an ordinary function to Client.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

// Synchronous calls f.
func (f ClientFunc) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware decorates a Client, e.g. to log or meter provider calls.
type Middleware func(next Client) Client

// Chain wraps client so that the first middleware listed sees the call
// first and the response last.
func Chain(client Client, middleware ...Middleware) Client {
	for i := len(middleware) - 1; i >= 0; i-- {
		client = middleware[i](client)
	}
	return client
}
