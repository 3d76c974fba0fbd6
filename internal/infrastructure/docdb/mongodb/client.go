// Package mongodb provides MongoDB client implementation.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lingopal/conversation-service/internal/core/docdb"
)

// Client implements the docdb.Client interface for MongoDB.
type Client struct {
	client    *mongo.Client
	sessions  *SessionsCollection
	messages  *MessagesCollection
	usage     *UsageCollection
	feedback  *FeedbackCollection
	meetings  *MeetingsCollection
	scenarios *ScenariosCollection
	users     *UsersCollection
}

// ClientConfig holds MongoDB connection configuration.
type ClientConfig struct {
	URI          string
	DatabaseName string
}

// NewClient creates a new MongoDB client.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.DatabaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	c := newClient(client.Database(config.DatabaseName))
	c.client = client
	return c, nil
}

func newClient(db *mongo.Database) *Client {
	return &Client{
		sessions:  NewSessionsCollection(db),
		messages:  NewMessagesCollection(db),
		usage:     NewUsageCollection(db),
		feedback:  NewFeedbackCollection(db),
		meetings:  NewMeetingsCollection(db),
		scenarios: NewScenariosCollection(db),
		users:     NewUsersCollection(db),
	}
}

// Sessions returns the sessions collection.
func (c *Client) Sessions() docdb.SessionsCollection { return c.sessions }

// Messages returns the messages collection.
func (c *Client) Messages() docdb.MessagesCollection { return c.messages }

// Usage returns the usage records collection.
func (c *Client) Usage() docdb.UsageCollection { return c.usage }

// Feedback returns the feedback collection.
func (c *Client) Feedback() docdb.FeedbackCollection { return c.feedback }

// Meetings returns the meeting analyses collection.
func (c *Client) Meetings() docdb.MeetingsCollection { return c.meetings }

// Scenarios returns the practice scenarios collection.
func (c *Client) Scenarios() docdb.ScenariosCollection { return c.scenarios }

// Users returns the users collection.
func (c *Client) Users() docdb.UsersCollection { return c.users }

// Ping verifies the connection to MongoDB.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes creates all necessary indexes for all owned collections.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	owned := []struct {
		name string
		fn   func(context.Context) error
	}{
		{SessionsCollectionName, c.sessions.EnsureIndexes},
		{MessagesCollectionName, c.messages.EnsureIndexes},
		{UsageCollectionName, c.usage.EnsureIndexes},
		{FeedbackCollectionName, c.feedback.EnsureIndexes},
	}

	for _, coll := range owned {
		if err := coll.fn(ctx); err != nil {
			return fmt.Errorf("failed to ensure %s indexes: %w", coll.name, err)
		}
	}
	return nil
}
