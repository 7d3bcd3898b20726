package agent

import "sync"

// Conversation is an opt-in multi-turn memory. An agent without one sends every
// prompt on its own, with only the system prompt before it.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// Messages returns a copy of the recorded turns
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Append records a completed exchange
func (c *Conversation) Append(prompt, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleAssistant, Content: reply},
	)
}

// Len returns the number of recorded messages
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Reset forgets every recorded turn
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
