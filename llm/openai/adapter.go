package openai

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aschepis/backscratcher/multichat/llm"
)

// ToOpenAIMessages converts llm.Messages to OpenAI chat message format.
// A non-empty system prompt is sent first with the system role.
func ToOpenAIMessages(system string, msgs []llm.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range msgs {
		result = append(result, ToOpenAIMessage(msg))
	}
	return result
}

// ToOpenAIMessage converts one message. Unknown roles are sent as user.
func ToOpenAIMessage(msg llm.Message) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	switch msg.Role {
	case llm.RoleAssistant:
		role = openai.ChatMessageRoleAssistant
	case llm.RoleSystem:
		role = openai.ChatMessageRoleSystem
	}
	return openai.ChatCompletionMessage{Role: role, Content: msg.Text}
}

// FromOpenAIResponse converts a chat completion into an llm.Response. The
// completion itself is kept as Raw.
func FromOpenAIResponse(chatResp openai.ChatCompletionResponse) (*llm.Response, error) {
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := chatResp.Choices[0]

	stopReason := "stop"
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		stopReason = "max_tokens"
	case openai.FinishReasonContentFilter:
		stopReason = "content_filter"
	}

	return &llm.Response{
		Text: choice.Message.Content,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.Usage.PromptTokens),
			OutputTokens: int64(chatResp.Usage.CompletionTokens),
		},
		StopReason: stopReason,
		Raw:        chatResp,
	}, nil
}
