package memory

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one committed turn in a conversation. Messages are immutable
// after creation; streaming accumulation happens in a transient buffer owned
// by the caller and only a finalized message is ever appended.
type Message struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed int       `json:"tokens_used,omitempty"`
}

// newMessage mints an immutable message with a fresh id.
func newMessage(role Role, content string, tokensUsed int) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       role,
		Content:    content,
		Timestamp:  time.Now(),
		TokensUsed: tokensUsed,
	}
}

// APIMessage is the wire shape sent to the chat-completion API.
type APIMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
