package models

import (
	"fmt"
	"strings"
	"time"
)

// Session is one ongoing or past conversation owned by a user.
type Session struct {
	ID        string          `json:"id" bson:"_id"`
	UserID    string          `json:"user_id" bson:"userId"`
	Title     string          `json:"title" bson:"title"`
	IsActive  bool            `json:"is_active" bson:"isActive"`
	Metadata  SessionMetadata `json:"metadata" bson:"metadata"`
	CreatedAt time.Time       `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updatedAt"`
}

// SessionMetadata holds the scenario the session was created with and the
// negotiated language. Extra carries free-form client supplied values.
type SessionMetadata struct {
	Scenario *ScenarioDescriptor    `json:"scenario,omitempty" bson:"scenario,omitempty"`
	Language string                 `json:"language,omitempty" bson:"language,omitempty"`
	Extra    map[string]interface{} `json:"extra,omitempty" bson:"extra,omitempty"`
}

// IsOwnedBy reports whether the session belongs to the given user.
func (s *Session) IsOwnedBy(userID string) bool {
	return s != nil && userID != "" && s.UserID == userID
}

// VoiceSessionTitle builds the title of a session opened over a live connection.
func VoiceSessionTitle(language string, scenario *ScenarioDescriptor) string {
	title := fmt.Sprintf("Voice Conversation - %s", strings.ToUpper(language))
	if scenario != nil {
		title += " - " + scenario.Title
	}
	return title
}

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New Conversation"
