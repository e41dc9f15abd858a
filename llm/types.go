package llm

// Role is the speaker of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one plain-text chat message.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// NewMessage returns a message spoken by role.
func NewMessage(role Role, text string) Message {
	return Message{Role: role, Text: text}
}

// Request is a provider-neutral chat call. Messages run oldest first and end
// with the prompt being answered; System travels separately because every
// SDK places it differently.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int64
	Temperature *float64
}

// Response is what an adapter could read out of an SDK reply. Adapters fill
// whichever of Text and Parts matches the SDK. Raw holds the SDK value
// itself for ReplyText to fall back on.
type Response struct {
	Text       string
	Parts      []string
	Usage      *Usage
	StopReason string
	Raw        any
}

// Usage counts the tokens a call consumed.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Turn is one earlier prompt and the reply it received.
type Turn struct {
	User      string
	Assistant string
}
