package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

// SessionsCollectionName is the name of the sessions collection.
const SessionsCollectionName = "chat_sessions"

// SessionsCollection implements docdb.SessionsCollection for MongoDB.
type SessionsCollection struct {
	coll *mongo.Collection
}

// NewSessionsCollection creates a new sessions collection wrapper.
func NewSessionsCollection(db *mongo.Database) *SessionsCollection {
	return &SessionsCollection{coll: db.Collection(SessionsCollectionName)}
}

// Insert stores a new session.
func (c *SessionsCollection) Insert(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}

	if _, err := c.coll.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (c *SessionsCollection) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// ListByUser lists the sessions of a user, most recently updated first.
func (c *SessionsCollection) ListByUser(ctx context.Context, opts *docdb.ListSessionsOptions) ([]*models.Session, error) {
	if opts == nil || opts.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}

	cursor, err := c.coll.Find(ctx, bson.M{"userId": opts.UserID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := make([]*models.Session, 0)
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}

// UpdateTitle changes the title of a session.
func (c *SessionsCollection) UpdateTitle(ctx context.Context, id, title string, at time.Time) (bool, error) {
	result, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title, "updatedAt": at}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session title: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// Touch moves the update timestamp of a session forward.
func (c *SessionsCollection) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$max": bson.M{"updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (c *SessionsCollection) Delete(ctx context.Context, id string) (bool, error) {
	result, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// EnsureIndexes creates necessary indexes for the sessions collection.
func (c *SessionsCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "updatedAt", Value: -1},
			},
			Options: options.Index().SetName("idx_user_updated"),
		},
	}

	if _, err := c.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create sessions indexes: %w", err)
	}
	return nil
}
