package llm

import (
	"errors"
	"testing"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRegistry_GetAndOrder(t *testing.T) {
	registry, err := NewRegistry([]*ChatClient{
		NewChatClient(ProviderGPT, "ChatGPT", "gpt-4o-mini", 512, 0.7, &fakeClient{}),
		NewChatClient(ProviderClaude, "Claude", "claude-3-5-haiku-latest", 512, 0.7, nil),
		NewChatClient(ProviderGemini, "Gemini", "gemini-2.0-flash", 512, 0.7, &fakeClient{}),
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	providers := registry.Providers()
	want := []string{ProviderGPT, ProviderClaude, ProviderGemini}
	if len(providers) != len(want) {
		t.Fatalf("Expected %d providers, got %d", len(want), len(providers))
	}
	for i := range want {
		if providers[i] != want[i] {
			t.Errorf("provider %d: expected %s, got %s", i, want[i], providers[i])
		}
	}

	// Callers cannot mutate the registry through the returned slice.
	providers[0] = "mutated"
	if registry.Providers()[0] != ProviderGPT {
		t.Error("Providers should return a copy")
	}

	if c, ok := registry.Get(ProviderClaude); !ok || c.Name != "Claude" {
		t.Error("Expected to find claude")
	}
	if _, ok := registry.Get("falcon"); ok {
		t.Error("falcon should not be registered")
	}
}

func TestRegistry_IsProviderConfigured(t *testing.T) {
	registry, err := NewRegistry([]*ChatClient{
		NewChatClient(ProviderGPT, "ChatGPT", "gpt-4o-mini", 512, 0.7, &fakeClient{}),
		NewChatClient(ProviderDeepSeek, "Deepseek", "deepseek-chat", 512, 0.7, nil),
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if !registry.IsProviderConfigured(ProviderGPT) {
		t.Error("gpt should be configured")
	}
	if registry.IsProviderConfigured(ProviderDeepSeek) {
		t.Error("deepseek should not be configured without a client")
	}
	if registry.IsProviderConfigured("unknown") {
		t.Error("unknown provider should not be configured")
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]*ChatClient{
		NewChatClient(ProviderGPT, "ChatGPT", "a", 512, 0.7, nil),
		NewChatClient(ProviderGPT, "ChatGPT", "b", 512, 0.7, nil),
	})
	if err == nil {
		t.Fatal("Expected duplicate provider error")
	}
}

func TestRegistry_ModelsFor(t *testing.T) {
	registry, err := NewRegistry([]*ChatClient{
		NewChatClient(ProviderGPT, "ChatGPT", "gpt-4o-mini", 512, 0.7, nil),
		NewChatClient(ProviderGemini, "Gemini", "gemini-2.0-flash", 512, 0.7, nil),
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	got := registry.ModelsFor([]string{"gpt", "Gemini", "custom-model"})
	want := []string{"gpt-4o-mini", "gemini-2.0-flash", "custom-model"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRegistry_CloseJoinsErrors(t *testing.T) {
	closed := 0
	boom := errors.New("boom")
	registry, err := NewRegistry(nil,
		closerFunc(func() error { closed++; return nil }),
		closerFunc(func() error { closed++; return boom }),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if err := registry.Close(); !errors.Is(err, boom) {
		t.Errorf("Expected close error to wrap boom, got %v", err)
	}
	if closed != 2 {
		t.Errorf("Expected both closers to run, got %d", closed)
	}
}
