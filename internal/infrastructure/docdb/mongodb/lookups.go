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

// Collections owned by other features of the platform. This service only reads them.
const (
	MeetingsCollectionName  = "meeting_analyses"
	ScenariosCollectionName = "practice_scenarios"
	UsersCollectionName     = "users"
)

// MeetingsCollection implements docdb.MeetingsCollection for MongoDB.
type MeetingsCollection struct {
	coll *mongo.Collection
}

// NewMeetingsCollection creates a new meetings collection wrapper.
func NewMeetingsCollection(db *mongo.Database) *MeetingsCollection {
	return &MeetingsCollection{coll: db.Collection(MeetingsCollectionName)}
}

// Get retrieves a meeting analysis by ID.
func (c *MeetingsCollection) Get(ctx context.Context, id string) (*models.MeetingAnalysis, error) {
	var meeting models.MeetingAnalysis
	if err := findOne(ctx, c.coll, bson.M{"_id": id}, &meeting); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting analysis: %w", err)
	}
	return &meeting, nil
}

// ScenariosCollection implements docdb.ScenariosCollection for MongoDB.
type ScenariosCollection struct {
	coll *mongo.Collection
}

// NewScenariosCollection creates a new scenarios collection wrapper.
func NewScenariosCollection(db *mongo.Database) *ScenariosCollection {
	return &ScenariosCollection{coll: db.Collection(ScenariosCollectionName)}
}

// Get retrieves a practice scenario by ID.
func (c *ScenariosCollection) Get(ctx context.Context, id string) (*models.PracticeScenario, error) {
	var scenario models.PracticeScenario
	if err := findOne(ctx, c.coll, bson.M{"_id": id}, &scenario); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get practice scenario: %w", err)
	}
	return &scenario, nil
}

// ListCustomByUser lists the custom scenarios of a user, newest first.
func (c *ScenariosCollection) ListCustomByUser(ctx context.Context, userID string, limit int64) ([]*models.PracticeScenario, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := c.coll.Find(ctx, bson.M{"userId": userID, "scenarioType": string(models.ScenarioCustom)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list practice scenarios: %w", err)
	}
	defer cursor.Close(ctx)

	var scenarios []*models.PracticeScenario
	if err := cursor.All(ctx, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to decode practice scenarios: %w", err)
	}
	return scenarios, nil
}

// UsersCollection implements docdb.UsersCollection for MongoDB.
type UsersCollection struct {
	coll *mongo.Collection
}

// NewUsersCollection creates a new users collection wrapper.
func NewUsersCollection(db *mongo.Database) *UsersCollection {
	return &UsersCollection{coll: db.Collection(UsersCollectionName)}
}

// GetByUsername retrieves a user by username.
func (c *UsersCollection) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, c.coll, bson.M{"username": username}, &user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out interface{}) error {
	return coll.FindOne(ctx, filter).Decode(out)
}
