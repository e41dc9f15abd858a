package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// replyPaths are the places a reply is found in the JSON form of the
// provider responses we know about, most specific first.
var replyPaths = []string{
	"choices.0.message.content",         // OpenAI-compatible chat completions
	"candidates.0.content.parts.#.text", // Gemini
	"content.#.text",                    // Anthropic messages
	"message.content",                   // Ollama chat
	"output_text",
	"output",
	"text",
	"content",
}

// ReplyText reduces a provider response to a single reply string. It tries,
// in order, the direct Text field, the joined Parts, the known reply
// paths of the raw SDK response and finally the raw response itself.
// It never panics.
func ReplyText(resp *Response) (reply string) {
	if resp == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			reply = fmt.Sprintf("%v", resp.Raw)
		}
	}()

	if resp.Text != "" {
		return resp.Text
	}
	if text := strings.Join(resp.Parts, ""); text != "" {
		return text
	}
	return rawReply(resp.Raw)
}

func rawReply(raw any) string {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		if !json.Valid(v) {
			return string(v)
		}
		data = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		data = encoded
	}

	if text := extractReply(data); text != "" {
		return text
	}
	return string(data)
}

func extractReply(data []byte) string {
	for _, path := range replyPaths {
		result := gjson.GetBytes(data, path)
		switch {
		case result.IsArray():
			var parts []string
			for _, item := range result.Array() {
				if item.Type == gjson.String {
					parts = append(parts, item.Str)
				}
			}
			if text := strings.Join(parts, ""); text != "" {
				return text
			}
		case result.Type == gjson.String && result.Str != "":
			return result.Str
		}
	}
	return ""
}
