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

// UsageCollectionName is the name of the usage records collection.
const UsageCollectionName = "token_usage"

// UsageCollection implements docdb.UsageCollection for MongoDB.
type UsageCollection struct {
	coll *mongo.Collection
}

// NewUsageCollection creates a new usage collection wrapper.
func NewUsageCollection(db *mongo.Database) *UsageCollection {
	return &UsageCollection{coll: db.Collection(UsageCollectionName)}
}

// Insert stores a usage record.
func (c *UsageCollection) Insert(ctx context.Context, record *models.UsageRecord) error {
	if record.ID == "" {
		return fmt.Errorf("usage record ID is required")
	}

	if _, err := c.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// ListByUser lists the usage records of a user, newest first.
func (c *UsageCollection) ListByUser(ctx context.Context, opts *docdb.ListUsageOptions) ([]*models.UsageRecord, error) {
	filter, err := buildUsageFilter(opts)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}

	cursor, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*models.UsageRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode usage records: %w", err)
	}
	return records, nil
}

// SummarizeByModel aggregates request count, tokens and cost per model.
func (c *UsageCollection) SummarizeByModel(ctx context.Context, opts *docdb.ListUsageOptions) ([]models.ModelUsage, error) {
	filter, err := buildUsageFilter(opts)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$model"},
			{Key: "requests", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "promptTokens", Value: bson.D{{Key: "$sum", Value: "$promptTokens"}}},
			{Key: "completionTokens", Value: bson.D{{Key: "$sum", Value: "$completionTokens"}}},
			{Key: "totalTokens", Value: bson.D{{Key: "$sum", Value: "$totalTokens"}}},
			{Key: "cost", Value: bson.D{{Key: "$sum", Value: "$cost"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalTokens", Value: -1}}}},
	}

	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	defer cursor.Close(ctx)

	summary := make([]models.ModelUsage, 0)
	if err := cursor.All(ctx, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode usage summary: %w", err)
	}
	return summary, nil
}

// EnsureIndexes creates necessary indexes for the usage collection.
func (c *UsageCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().SetName("idx_session_id").SetSparse(true),
		},
	}

	if _, err := c.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create usage indexes: %w", err)
	}
	return nil
}

func buildUsageFilter(opts *docdb.ListUsageOptions) (bson.M, error) {
	if opts == nil || opts.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	filter := bson.M{"userId": opts.UserID}

	window := bson.M{}
	if !opts.From.IsZero() {
		window["$gte"] = opts.From
	}
	if !opts.To.IsZero() {
		window["$lt"] = opts.To
	}
	if len(window) > 0 {
		filter["timestamp"] = window
	}

	return filter, nil
}
