package testutils

import (
	"time"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

// Test constants
const (
	TestUserID    = "user-test-def"
	TestUsername  = "marie"
	TestSessionID = "session-test-456"
	TestMessageID = "msg-test-789"
)

// NewTestPrincipal returns the principal used by handler tests.
func NewTestPrincipal() *models.Principal {
	return &models.Principal{ID: TestUserID, Username: TestUsername}
}

// NewTestSession creates a test session owned by TestUserID.
func NewTestSession() *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:        TestSessionID,
		UserID:    TestUserID,
		Title:     "Voice Conversation - FR - Job Interview",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: models.SessionMetadata{
			Language: "fr",
			Scenario: &models.ScenarioDescriptor{
				ID:      "job_interview",
				Type:    models.ScenarioPredefined,
				Title:   "Job Interview",
				Role:    "interviewer",
				Summary: "conducting a job interview",
			},
		},
	}
}

// NewTestMessage creates a user message in the test session.
func NewTestMessage() *models.Message {
	return &models.Message{
		ID:         TestMessageID,
		SessionID:  TestSessionID,
		Role:       models.RoleUser,
		Content:    "Bonjour, je m'appelle Marie.",
		TokenCount: 7,
		Timestamp:  time.Now().UTC(),
	}
}
