package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/multichat/llm"
)

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicClient("", zerolog.Nop()); err == nil {
		t.Fatal("Expected error without api key")
	}
}

func TestToMessageParams_Roles(t *testing.T) {
	params := ToMessageParams([]llm.Message{
		llm.NewMessage(llm.RoleUser, "q"),
		llm.NewMessage(llm.RoleAssistant, "a"),
	})
	if len(params) != 2 {
		t.Fatalf("Expected 2 params, got %d", len(params))
	}
	if string(params[0].Role) != "user" || string(params[1].Role) != "assistant" {
		t.Errorf("Unexpected roles %s, %s", params[0].Role, params[1].Role)
	}
	if params[1].Content[0].OfText == nil || params[1].Content[0].OfText.Text != "a" {
		t.Error("Expected assistant text block")
	}
}

func TestAnthropicClient_Synchronous(t *testing.T) {
	var body map[string]any
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("unexpected api key %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "Bonjour"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 9, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	client, err := NewAnthropicClient("test-key", zerolog.Nop(), option.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewAnthropicClient: %v", err)
	}

	temperature := 0.3
	resp, err := client.Synchronous(context.Background(), &llm.Request{
		Model:       "claude-3-5-haiku-latest",
		System:      "Answer in French.",
		Messages:    []llm.Message{llm.NewMessage(llm.RoleUser, "Hello")},
		MaxTokens:   128,
		Temperature: &temperature,
	})
	if err != nil {
		t.Fatalf("Synchronous: %v", err)
	}

	if got := llm.ReplyText(resp); got != "Bonjour" {
		t.Errorf("Expected 'Bonjour', got %q", got)
	}
	if resp.Usage.InputTokens != 9 || resp.Usage.OutputTokens != 3 {
		t.Errorf("Unexpected usage %+v", resp.Usage)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("Unexpected stop reason %q", resp.StopReason)
	}

	if body["model"] != "claude-3-5-haiku-latest" {
		t.Errorf("Unexpected model %v", body["model"])
	}
	if body["max_tokens"] != float64(128) {
		t.Errorf("Unexpected max_tokens %v", body["max_tokens"])
	}
	if body["temperature"] != 0.3 {
		t.Errorf("Unexpected temperature %v", body["temperature"])
	}
	if calls != 1 {
		t.Errorf("Expected one call, got %d", calls)
	}
}

func TestAnthropicClient_ErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`)) //nolint:errcheck // Test server
	}))
	defer srv.Close()

	client, err := NewAnthropicClient("test-key", zerolog.Nop(), option.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewAnthropicClient: %v", err)
	}

	_, err = client.Synchronous(context.Background(), &llm.Request{
		Model:     "claude-3-5-haiku-latest",
		Messages:  []llm.Message{llm.NewMessage(llm.RoleUser, "Hello")},
		MaxTokens: 16,
	})
	if !llm.IsProviderError(err) {
		t.Fatalf("Expected provider error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
}
