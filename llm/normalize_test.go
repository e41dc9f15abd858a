package llm

import "testing"

type rawMessage struct {
	Content string `json:"content"`
}

type rawChoice struct {
	Message rawMessage `json:"message"`
}

type rawCompletion struct {
	Choices []rawChoice `json:"choices"`
}

func TestReplyText(t *testing.T) {
	completion := rawCompletion{Choices: []rawChoice{{Message: rawMessage{Content: "from choices"}}}}

	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{name: "nil response", resp: nil, want: ""},
		{name: "direct text wins", resp: &Response{Text: "direct", Parts: []string{"parts"}}, want: "direct"},
		{name: "parts joined", resp: &Response{Parts: []string{"a", "b"}}, want: "ab"},
		{name: "struct with choices", resp: &Response{Raw: completion}, want: "from choices"},
		{name: "gemini map", resp: &Response{Raw: map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"text": "part one, "},
				map[string]any{"text": "part two"},
			}}}},
		}}, want: "part one, part two"},
		{name: "anthropic content list", resp: &Response{Raw: map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "claude says"}},
		}}, want: "claude says"},
		{name: "ollama message", resp: &Response{Raw: map[string]any{"message": map[string]any{"role": "assistant", "content": "local"}}}, want: "local"},
		{name: "output field", resp: &Response{Raw: map[string]any{"output": "out"}}, want: "out"},
		{name: "raw json bytes", resp: &Response{Raw: []byte(`{"text":"bytes"}`)}, want: "bytes"},
		{name: "raw string", resp: &Response{Raw: "plain"}, want: "plain"},
		{name: "unknown shape stringified", resp: &Response{Raw: map[string]any{"foo": 1}}, want: `{"foo":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReplyText(tt.resp)
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReplyText_UnmarshalableRaw(t *testing.T) {
	got := ReplyText(&Response{Raw: make(chan int)})
	if got == "" {
		t.Error("Expected the raw value to be stringified")
	}
}
