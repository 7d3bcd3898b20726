package agent

import "context"

// Agent sends a natural language request to a language model and returns its raw reply
type Agent interface {
	// Chat sends prompt together with the system prompt and returns the model text untouched
	Chat(ctx context.Context, prompt string) (string, error)
}

// Message roles understood by the chat endpoint
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Func adapts a plain function to the Agent interface
type Func func(ctx context.Context, prompt string) (string, error)

// Chat calls f
func (f Func) Chat(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
