package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewStatusError_Kinds(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusRequestEntityTooLarge, KindTooLarge},
		{http.StatusBadRequest, KindBadRequest},
		{http.StatusNotFound, KindBadRequest},
		{http.StatusUnauthorized, KindUpstream},
		{http.StatusServiceUnavailable, KindUpstream},
	}
	for _, tt := range tests {
		err := NewStatusError(tt.status, "call failed", nil)
		if err.Kind != tt.want {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.want, err.Kind)
		}
		if !IsProviderError(err) {
			t.Errorf("status %d: expected a provider error", tt.status)
		}
	}
}

func TestKindOf(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("Expected no kind for a plain error")
	}
	kind, ok := KindOf(fmt.Errorf("outer: %w", NewUnreachableError("dial", nil)))
	if !ok || kind != KindUnreachable {
		t.Errorf("Expected unreachable through wrapping, got %q %v", kind, ok)
	}
}

func TestIsNotConfiguredError(t *testing.T) {
	err := NewNotConfiguredError("Claude")
	if !IsNotConfiguredError(err) {
		t.Error("Expected IsNotConfiguredError to return true")
	}
	if IsProviderError(err) {
		t.Error("Expected a not-configured error not to count as a provider error")
	}
	if err.Error() != "Claude client not configured" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if IsNotConfiguredError(errors.New("plain")) {
		t.Error("Expected IsNotConfiguredError to return false for plain error")
	}
}

func TestAttribute(t *testing.T) {
	sdkErr := errors.New("connection reset")
	err := attribute("Grok", sdkErr)
	if err.Kind != KindUpstream || err.Provider != "Grok" {
		t.Errorf("Unexpected error %+v", err)
	}
	if err.Error() != "Grok request failed: connection reset" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, sdkErr) {
		t.Error("Expected the SDK error in the chain")
	}

	throttled := attribute("ChatGPT", fmt.Errorf("call: %w", NewRateLimitError("slow down", nil)))
	if !IsRateLimitError(throttled) || throttled.Status != http.StatusTooManyRequests {
		t.Errorf("Expected rate limit kind and status to survive, got %+v", throttled)
	}

	// A not-configured error from below ChatClient is still a failed call.
	inner := attribute("Qwen", NewNotConfiguredError("inner"))
	if !IsProviderError(inner) {
		t.Errorf("Expected upstream kind, got %s", inner.Kind)
	}
}
