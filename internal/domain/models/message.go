// Package models contains domain models for the conversation service.
package models

import "time"

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	// RoleUser represents a message from the user.
	RoleUser MessageRole = "user"
	// RoleAssistant represents a message from the assistant.
	RoleAssistant MessageRole = "assistant"
	// RoleSystem represents a system message.
	RoleSystem MessageRole = "system"
)

// IsValid reports whether the role is one of the known roles.
func (r MessageRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is one persisted turn in a session. Messages are append-only and ordered
// by Timestamp within a session.
type Message struct {
	ID         string                 `json:"id" bson:"_id"`
	SessionID  string                 `json:"session_id" bson:"sessionId"`
	Role       MessageRole            `json:"role" bson:"role"`
	Content    string                 `json:"content" bson:"content"`
	TokenCount int                    `json:"token_count" bson:"tokenCount"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp" bson:"timestamp"`
}

// NewMessage creates a message for the given session.
func NewMessage(sessionID string, role MessageRole, content string, tokenCount int) *Message {
	return &Message{
		SessionID:  sessionID,
		Role:       role,
		Content:    content,
		TokenCount: tokenCount,
		Timestamp:  time.Now().UTC(),
	}
}

// ToChatTurn projects the message onto the role/content pair used for model calls.
func (m *Message) ToChatTurn() ChatTurn {
	return ChatTurn{Role: m.Role, Content: m.Content}
}

// ChatTurn is one entry of an in-memory transcript sent to the language model.
type ChatTurn struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ToChatTurns converts persisted messages to a transcript, keeping their order.
func ToChatTurns(messages []*Message) []ChatTurn {
	turns := make([]ChatTurn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, msg.ToChatTurn())
	}
	return turns
}

// HasSystemTurn reports whether the transcript already carries a system instruction.
func HasSystemTurn(turns []ChatTurn) bool {
	for _, turn := range turns {
		if turn.Role == RoleSystem {
			return true
		}
	}
	return false
}
