package docdb

import (
	"context"
	"time"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

// ListSessionsOptions contains options for listing sessions.
type ListSessionsOptions struct {
	UserID string
	Limit  int64
	Skip   int64
}

// SessionsCollection stores conversation sessions.
type SessionsCollection interface {
	// Insert stores a new session. The ID must be set.
	Insert(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*models.Session, error)

	// ListByUser lists the sessions of a user, most recently updated first.
	ListByUser(ctx context.Context, opts *ListSessionsOptions) ([]*models.Session, error)

	// UpdateTitle changes the title. Returns false if the session does not exist.
	UpdateTitle(ctx context.Context, id, title string, at time.Time) (bool, error)

	// Touch moves the update timestamp forward.
	Touch(ctx context.Context, id string, at time.Time) error

	// Delete removes a session. Returns false if it did not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// EnsureIndexes creates necessary indexes for the collection.
	EnsureIndexes(ctx context.Context) error
}

// ListMessagesOptions contains options for listing messages.
type ListMessagesOptions struct {
	SessionID string
	Limit     int64
	Skip      int64
	OrderBy   SortOrder // Order by timestamp, ascending by default
}

// MessagesCollection stores the append-only message log of sessions.
type MessagesCollection interface {
	// Insert appends a message. The ID must be set.
	Insert(ctx context.Context, message *models.Message) error

	// ListBySession lists the messages of a session.
	ListBySession(ctx context.Context, opts *ListMessagesOptions) ([]*models.Message, error)

	// DeleteBySession removes every message of a session.
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)

	// CountBySession returns the number of messages in a session.
	CountBySession(ctx context.Context, sessionID string) (int64, error)

	// EnsureIndexes creates necessary indexes for the collection.
	EnsureIndexes(ctx context.Context) error
}

// ListUsageOptions filters usage records of one user by time window.
type ListUsageOptions struct {
	UserID string
	From   time.Time
	To     time.Time
	Limit  int64
	Skip   int64
}

// UsageCollection stores token usage records.
type UsageCollection interface {
	// Insert stores a usage record. The ID must be set.
	Insert(ctx context.Context, record *models.UsageRecord) error

	// ListByUser lists records newest first.
	ListByUser(ctx context.Context, opts *ListUsageOptions) ([]*models.UsageRecord, error)

	// SummarizeByModel aggregates the records matching opts per model.
	SummarizeByModel(ctx context.Context, opts *ListUsageOptions) ([]models.ModelUsage, error)

	// EnsureIndexes creates necessary indexes for the collection.
	EnsureIndexes(ctx context.Context) error
}

// FeedbackCollection stores conversation analysis results.
type FeedbackCollection interface {
	// Insert stores a feedback document. The ID must be set.
	Insert(ctx context.Context, feedback *models.Feedback) error

	// Latest returns the newest feedback of a user for a session. Returns nil if none.
	Latest(ctx context.Context, userID, sessionID string) (*models.Feedback, error)

	// EnsureIndexes creates necessary indexes for the collection.
	EnsureIndexes(ctx context.Context) error
}

// MeetingsCollection reads meeting analyses written by the meeting feature.
type MeetingsCollection interface {
	// Get retrieves a meeting analysis by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*models.MeetingAnalysis, error)
}

// ScenariosCollection reads user-authored practice scenarios.
type ScenariosCollection interface {
	// Get retrieves a scenario by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*models.PracticeScenario, error)

	// ListCustomByUser lists the custom scenarios of a user, newest first.
	ListCustomByUser(ctx context.Context, userID string, limit int64) ([]*models.PracticeScenario, error)
}

// UsersCollection reads user accounts.
type UsersCollection interface {
	// GetByUsername retrieves a user. Returns nil if not found.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
