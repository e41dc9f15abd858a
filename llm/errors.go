package llm

import (
	"errors"
	"net/http"
)

// Kind classifies a failed chat call.
type Kind string

const (
	KindNotConfigured Kind = "not_configured"
	KindRateLimited   Kind = "rate_limited"
	KindTooLarge      Kind = "too_large"
	KindBadRequest    Kind = "bad_request"
	KindUnreachable   Kind = "unreachable"
	KindUpstream      Kind = "upstream"
	KindEmptyReply    Kind = "empty_reply"
)

// Error is returned by adapters and ChatClient. Everything except
// KindNotConfigured means a provider was actually called.
type Error struct {
	Kind     Kind
	Provider string // display name, set once the error leaves ChatClient
	Status   int    // HTTP status reported by the provider, 0 if none
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		return "", false
	}
	return llmErr.Kind, true
}

// IsNotConfiguredError reports whether err came from a provider with no
// credentials.
func IsNotConfiguredError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNotConfigured
}

// IsProviderError reports whether err came back from calling a provider.
func IsProviderError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind != KindNotConfigured
}

// IsRateLimitError reports whether the provider throttled the call.
func IsRateLimitError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindRateLimited
}

// NewNotConfiguredError is returned by a ChatClient that has no SDK client.
func NewNotConfiguredError(name string) *Error {
	return &Error{
		Kind:     KindNotConfigured,
		Provider: name,
		Msg:      name + " client not configured",
	}
}

// NewRateLimitError reports a throttled call.
func NewRateLimitError(msg string, err error) *Error {
	return &Error{Kind: KindRateLimited, Status: http.StatusTooManyRequests, Msg: msg, Err: err}
}

// NewStatusError classifies a provider's HTTP error status.
func NewStatusError(status int, msg string, err error) *Error {
	kind := KindUpstream
	switch status {
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusRequestEntityTooLarge:
		kind = KindTooLarge
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		kind = KindBadRequest
	}
	return &Error{Kind: kind, Status: status, Msg: msg, Err: err}
}

// NewUnreachableError reports a call that never got an HTTP answer.
func NewUnreachableError(msg string, err error) *Error {
	return &Error{Kind: KindUnreachable, Msg: msg, Err: err}
}

// attribute labels an adapter failure with the provider's display name. The
// kind and status of a wrapped *Error survive; anything else is upstream.
func attribute(name string, err error) *Error {
	out := &Error{Kind: KindUpstream, Provider: name, Msg: name + " request failed", Err: err}
	var llmErr *Error
	if errors.As(err, &llmErr) && llmErr.Kind != KindNotConfigured {
		out.Kind = llmErr.Kind
		out.Status = llmErr.Status
	}
	return out
}
