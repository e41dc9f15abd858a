package anthropic

import (
	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/multichat/llm"
)

// ToMessageParam converts an llm.Message to an Anthropic MessageParam.
// System messages are not valid inside the message list and are sent as
// user text; the system prompt travels in MessageNewParams.System instead.
func ToMessageParam(msg llm.Message) anthropic.MessageParam {
	block := anthropic.NewTextBlock(msg.Text)
	if msg.Role == llm.RoleAssistant {
		return anthropic.NewAssistantMessage(block)
	}
	return anthropic.NewUserMessage(block)
}

// ToMessageParams converts a slice of llm.Messages to Anthropic MessageParams.
func ToMessageParams(msgs []llm.Message) []anthropic.MessageParam {
	return lo.Map(msgs, func(msg llm.Message, _ int) anthropic.MessageParam {
		return ToMessageParam(msg)
	})
}

// FromMessage converts an Anthropic Message into an llm.Response. The raw
// JSON body is kept for reply extraction.
func FromMessage(message *anthropic.Message) *llm.Response {
	parts := lo.FilterMap(message.Content, func(block anthropic.ContentBlockUnion, _ int) (string, bool) {
		text, ok := block.AsAny().(anthropic.TextBlock)
		return text.Text, ok
	})

	resp := &llm.Response{
		Parts: parts,
		Usage: &llm.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
		StopReason: string(message.StopReason),
	}
	if raw := message.RawJSON(); raw != "" {
		resp.Raw = []byte(raw)
	}
	return resp
}
