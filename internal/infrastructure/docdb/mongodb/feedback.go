package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

// FeedbackCollectionName is the name of the feedback collection.
const FeedbackCollectionName = "conversation_feedback"

// FeedbackCollection implements docdb.FeedbackCollection for MongoDB.
type FeedbackCollection struct {
	coll *mongo.Collection
}

// NewFeedbackCollection creates a new feedback collection wrapper.
func NewFeedbackCollection(db *mongo.Database) *FeedbackCollection {
	return &FeedbackCollection{coll: db.Collection(FeedbackCollectionName)}
}

// Insert stores a feedback document.
func (c *FeedbackCollection) Insert(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		return fmt.Errorf("feedback ID is required")
	}

	if _, err := c.coll.InsertOne(ctx, feedback); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// Latest returns the newest feedback of a user for a session.
func (c *FeedbackCollection) Latest(ctx context.Context, userID, sessionID string) (*models.Feedback, error) {
	var feedback models.Feedback
	err := c.coll.FindOne(ctx,
		bson.M{"userId": userID, "sessionId": sessionID},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&feedback)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest feedback: %w", err)
	}
	return &feedback, nil
}

// EnsureIndexes creates necessary indexes for the feedback collection.
func (c *FeedbackCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "sessionId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_user_session_created"),
		},
	}

	if _, err := c.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create feedback indexes: %w", err)
	}
	return nil
}
