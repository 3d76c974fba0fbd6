package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

// MessagesCollectionName is the name of the messages collection.
const MessagesCollectionName = "chat_messages"

// MessagesCollection implements docdb.MessagesCollection for MongoDB.
type MessagesCollection struct {
	coll *mongo.Collection
}

// NewMessagesCollection creates a new messages collection wrapper.
func NewMessagesCollection(db *mongo.Database) *MessagesCollection {
	return &MessagesCollection{coll: db.Collection(MessagesCollectionName)}
}

// Insert appends a message to its session.
func (c *MessagesCollection) Insert(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if message.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if _, err := c.coll.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListBySession lists the messages of a session ordered by timestamp.
func (c *MessagesCollection) ListBySession(ctx context.Context, opts *docdb.ListMessagesOptions) ([]*models.Message, error) {
	if opts == nil || opts.SessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	cursor, err := c.coll.Find(ctx, bson.M{"sessionId": opts.SessionID}, buildMessageFindOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// DeleteBySession removes every message of a session.
func (c *MessagesCollection) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result, err := c.coll.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	return result.DeletedCount, nil
}

// CountBySession returns the number of messages in a session.
func (c *MessagesCollection) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// EnsureIndexes creates necessary indexes for the messages collection.
func (c *MessagesCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sessionId", Value: 1},
				{Key: "timestamp", Value: 1},
			},
			Options: options.Index().SetName("idx_session_timestamp"),
		},
	}

	if _, err := c.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create messages indexes: %w", err)
	}
	return nil
}

func buildMessageFindOptions(opts *docdb.ListMessagesOptions) *options.FindOptions {
	findOpts := options.Find()

	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}

	sortOrder := 1
	if opts.OrderBy == docdb.SortOrderDesc {
		sortOrder = -1
	}
	findOpts.SetSort(bson.D{{Key: "timestamp", Value: sortOrder}})

	return findOpts
}
