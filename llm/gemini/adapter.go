package gemini

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/samber/lo"

	"github.com/aschepis/backscratcher/multichat/llm"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// ConfigureModel applies the system prompt, token budget and temperature of
// a request to a generative model.
func ConfigureModel(model *genai.GenerativeModel, req *llm.Request) {
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
}

// ToGeminiContent converts an llm.Message to Gemini content. Gemini names the
// assistant role "model".
func ToGeminiContent(msg llm.Message) *genai.Content {
	role := roleUser
	if msg.Role == llm.RoleAssistant {
		role = roleModel
	}
	return &genai.Content{
		Role:  role,
		Parts: []genai.Part{genai.Text(msg.Text)},
	}
}

// ToGeminiHistory splits messages into chat history and the message to send.
// msgs must not be empty.
func ToGeminiHistory(msgs []llm.Message) ([]*genai.Content, *genai.Content) {
	history := lo.Map(msgs[:len(msgs)-1], func(msg llm.Message, _ int) *genai.Content {
		return ToGeminiContent(msg)
	})
	return history, ToGeminiContent(msgs[len(msgs)-1])
}

// FromGeminiResponse converts a Gemini response to an llm.Response using the
// text parts of the first candidate.
func FromGeminiResponse(resp *genai.GenerateContentResponse) (*llm.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text.WriteString(string(txt))
			}
		}
	}

	out := &llm.Response{
		Text:       text.String(),
		StopReason: strings.ToLower(candidate.FinishReason.String()),
		Raw:        resp,
	}
	if resp.UsageMetadata != nil {
		out.Usage = &llm.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}
