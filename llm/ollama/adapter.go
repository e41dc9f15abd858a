package ollama

import (
	"github.com/ollama/ollama/api"
	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/multichat/llm"
)

// ToOllamaMessages converts llm.Messages to Ollama chat messages. A
// non-empty system prompt is sent first with the system role.
func ToOllamaMessages(system string, msgs []llm.Message) []api.Message {
	result := lo.Map(msgs, func(msg llm.Message, _ int) api.Message {
		return ToOllamaMessage(msg)
	})
	if system != "" {
		result = append([]api.Message{{Role: "system", Content: system}}, result...)
	}
	return result
}

// ToOllamaMessage converts a single llm.Message to Ollama format.
func ToOllamaMessage(msg llm.Message) api.Message {
	switch msg.Role {
	case llm.RoleAssistant, llm.RoleSystem:
		return api.Message{Role: string(msg.Role), Content: msg.Text}
	default:
		return api.Message{Role: string(llm.RoleUser), Content: msg.Text}
	}
}

// FromChatResponse converts an Ollama chat response to an llm.Response.
func FromChatResponse(chatResp api.ChatResponse) *llm.Response {
	stopReason := "end_turn"
	if chatResp.Done {
		stopReason = "stop"
		if chatResp.DoneReason != "" {
			stopReason = chatResp.DoneReason
		}
	}

	return &llm.Response{
		Text: chatResp.Message.Content,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.PromptEvalCount),
			OutputTokens: int64(chatResp.EvalCount),
		},
		StopReason: stopReason,
		Raw:        chatResp,
	}
}
