package domain

import "time"

// MessageRole identifies who authored a conversation message.
type MessageRole string

// Conversation roles.
const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry in a session's conversation log. Messages are
// append-only: never mutated after creation, only evicted oldest-first when
// the session cap is reached.
type Message struct {
	// SessionID owns the message.
	SessionID string

	// Position is the append order within the session. Positions keep
	// increasing across evictions.
	Position int

	// Role is user or assistant.
	Role MessageRole

	// Content is the message text.
	Content string

	// CreatedAt is when the message was appended.
	CreatedAt time.Time
}
