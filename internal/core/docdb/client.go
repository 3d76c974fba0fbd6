// Package docdb defines the document database client interface.
package docdb

import (
	"context"
)

// Client defines the interface for a document database client.
type Client interface {
	// Sessions returns the conversation sessions collection.
	Sessions() SessionsCollection

	// Messages returns the session messages collection.
	Messages() MessagesCollection

	// Usage returns the token usage records collection.
	Usage() UsageCollection

	// Feedback returns the conversation feedback collection.
	Feedback() FeedbackCollection

	// Meetings returns the read-only meeting analyses collection.
	Meetings() MeetingsCollection

	// Scenarios returns the read-only practice scenarios collection.
	Scenarios() ScenariosCollection

	// Users returns the read-only users collection.
	Users() UsersCollection

	// Ping verifies the database connection.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close(ctx context.Context) error

	// EnsureIndexes creates the indexes of every owned collection.
	EnsureIndexes(ctx context.Context) error
}
