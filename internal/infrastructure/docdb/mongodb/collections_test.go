package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

func namespace(mt *mtest.T, collection string) string {
	return mt.DB.Name() + "." + collection
}

func TestSessionsCollection(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert requires id", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)

		err := coll.Insert(ctx, &models.Session{UserID: "u1"})

		assert.EqualError(mt, err, "session ID is required")
	})

	mt.Run("insert", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := coll.Insert(ctx, &models.Session{ID: "s1", UserID: "u1", Title: "New Conversation"})

		assert.NoError(mt, err)
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := coll.Insert(ctx, &models.Session{ID: "s1", UserID: "u1"})

		assert.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to insert session")
	})

	mt.Run("get found", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, SessionsCollectionName), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "s1"},
			{Key: "userId", Value: "u1"},
			{Key: "title", Value: "Voice Conversation - FR - Job Interview"},
			{Key: "isActive", Value: true},
			{Key: "metadata", Value: bson.D{
				{Key: "language", Value: "fr"},
				{Key: "scenario", Value: bson.D{
					{Key: "id", Value: "job_interview"},
					{Key: "type", Value: "predefined"},
					{Key: "title", Value: "Job Interview"},
					{Key: "description", Value: "conducting a job interview"},
					{Key: "role", Value: "interviewer"},
				}},
			}},
		}))

		session, err := coll.Get(ctx, "s1")

		require.NoError(mt, err)
		require.NotNil(mt, session)
		assert.Equal(mt, "u1", session.UserID)
		assert.Equal(mt, "fr", session.Metadata.Language)
		require.NotNil(mt, session.Metadata.Scenario)
		assert.Equal(mt, "interviewer", session.Metadata.Scenario.Role)
	})

	mt.Run("get not found", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, SessionsCollectionName), mtest.FirstBatch))

		session, err := coll.Get(ctx, "missing")

		assert.NoError(mt, err)
		assert.Nil(mt, session)
	})

	mt.Run("list by user", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		ns := namespace(mt, SessionsCollectionName)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "s2"}, {Key: "userId", Value: "u1"}},
			bson.D{{Key: "_id", Value: "s1"}, {Key: "userId", Value: "u1"}},
		))

		sessions, err := coll.ListByUser(ctx, &docdb.ListSessionsOptions{UserID: "u1", Limit: 10})

		require.NoError(mt, err)
		require.Len(mt, sessions, 2)
		assert.Equal(mt, "s2", sessions[0].ID)
	})

	mt.Run("list requires user", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)

		_, err := coll.ListByUser(ctx, &docdb.ListSessionsOptions{})

		assert.EqualError(mt, err, "user ID is required")
	})

	mt.Run("update title", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		ok, err := coll.UpdateTitle(ctx, "s1", "Renamed", time.Now().UTC())

		assert.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("update title missing", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		ok, err := coll.UpdateTitle(ctx, "missing", "Renamed", time.Now().UTC())

		assert.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("delete", func(mt *mtest.T) {
		coll := NewSessionsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		deleted, err := coll.Delete(ctx, "s1")

		assert.NoError(mt, err)
		assert.True(mt, deleted)
	})
}

func TestMessagesCollection(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert requires session", func(mt *mtest.T) {
		coll := NewMessagesCollection(mt.DB)

		err := coll.Insert(ctx, &models.Message{ID: "m1"})

		assert.EqualError(mt, err, "session ID is required")
	})

	mt.Run("list by session", func(mt *mtest.T) {
		coll := NewMessagesCollection(mt.DB)
		ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, MessagesCollectionName), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "m1"},
				{Key: "sessionId", Value: "s1"},
				{Key: "role", Value: "user"},
				{Key: "content", Value: "Bonjour"},
				{Key: "tokenCount", Value: 2},
				{Key: "timestamp", Value: ts},
			},
			bson.D{
				{Key: "_id", Value: "m2"},
				{Key: "sessionId", Value: "s1"},
				{Key: "role", Value: "assistant"},
				{Key: "content", Value: "Bonjour ! Asseyez-vous."},
				{Key: "metadata", Value: bson.D{{Key: "model", Value: "gpt-3.5-turbo"}}},
				{Key: "timestamp", Value: ts.Add(time.Second)},
			},
		))

		messages, err := coll.ListBySession(ctx, &docdb.ListMessagesOptions{SessionID: "s1"})

		require.NoError(mt, err)
		require.Len(mt, messages, 2)
		assert.Equal(mt, models.RoleUser, messages[0].Role)
		assert.Equal(mt, 2, messages[0].TokenCount)
		assert.Equal(mt, ts, messages[0].Timestamp.UTC())
		assert.Equal(mt, "gpt-3.5-turbo", messages[1].Metadata["model"])
	})

	mt.Run("list error", func(mt *mtest.T) {
		coll := NewMessagesCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
		}))

		messages, err := coll.ListBySession(ctx, &docdb.ListMessagesOptions{SessionID: "s1"})

		assert.Error(mt, err)
		assert.Nil(mt, messages)
	})

	mt.Run("delete by session", func(mt *mtest.T) {
		coll := NewMessagesCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 4}))

		n, err := coll.DeleteBySession(ctx, "s1")

		assert.NoError(mt, err)
		assert.Equal(mt, int64(4), n)
	})

	mt.Run("count by session", func(mt *mtest.T) {
		coll := NewMessagesCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, MessagesCollectionName), mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(3)}},
		))

		n, err := coll.CountBySession(ctx, "s1")

		assert.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})
}

func TestUsageCollection(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("insert", func(mt *mtest.T) {
		coll := NewUsageCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		cost := 0.0012

		err := coll.Insert(ctx, &models.UsageRecord{
			ID:               "r1",
			UserID:           "u1",
			Model:            "gpt-3.5-turbo",
			PromptTokens:     100,
			CompletionTokens: 50,
			TotalTokens:      150,
			Cost:             &cost,
			Context:          models.UsageContextConversation,
		})

		assert.NoError(mt, err)
	})

	mt.Run("summarize by model", func(mt *mtest.T) {
		coll := NewUsageCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, UsageCollectionName), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "gpt-4"},
				{Key: "requests", Value: int32(2)},
				{Key: "promptTokens", Value: int32(300)},
				{Key: "completionTokens", Value: int32(100)},
				{Key: "totalTokens", Value: int32(400)},
				{Key: "cost", Value: 0.015},
			},
			bson.D{
				{Key: "_id", Value: "local-model"},
				{Key: "requests", Value: int32(1)},
				{Key: "promptTokens", Value: int32(10)},
				{Key: "completionTokens", Value: int32(5)},
				{Key: "totalTokens", Value: int32(15)},
				{Key: "cost", Value: int32(0)},
			},
		))

		summary, err := coll.SummarizeByModel(ctx, &docdb.ListUsageOptions{
			UserID: "u1",
			From:   time.Now().Add(-24 * time.Hour),
		})

		require.NoError(mt, err)
		require.Len(mt, summary, 2)
		assert.Equal(mt, "gpt-4", summary[0].Model)
		assert.Equal(mt, int64(400), summary[0].TotalTokens)
		assert.InDelta(mt, 0.015, summary[0].Cost, 1e-9)
		assert.Equal(mt, float64(0), summary[1].Cost)
	})

	mt.Run("summarize requires user", func(mt *mtest.T) {
		coll := NewUsageCollection(mt.DB)

		_, err := coll.SummarizeByModel(ctx, nil)

		assert.EqualError(mt, err, "user ID is required")
	})
}

func TestFeedbackCollection_Latest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("found", func(mt *mtest.T) {
		coll := NewFeedbackCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, FeedbackCollectionName), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "f1"},
				{Key: "userId", Value: "u1"},
				{Key: "sessionId", Value: "s1"},
				{Key: "strengths", Value: bson.A{"Good effort in the conversation"}},
				{Key: "scores", Value: bson.D{{Key: "overall", Value: 82}}},
			},
		))

		feedback, err := coll.Latest(ctx, "u1", "s1")

		require.NoError(mt, err)
		require.NotNil(mt, feedback)
		assert.Equal(mt, 82, feedback.Scores.Overall)
		assert.Equal(mt, []string{"Good effort in the conversation"}, feedback.Strengths)
	})

	mt.Run("none", func(mt *mtest.T) {
		coll := NewFeedbackCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, FeedbackCollectionName), mtest.FirstBatch))

		feedback, err := coll.Latest(ctx, "u1", "s1")

		assert.NoError(mt, err)
		assert.Nil(mt, feedback)
	})
}

func TestLookupCollections(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("meeting", func(mt *mtest.T) {
		coll := NewMeetingsCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, MeetingsCollectionName), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "42"},
				{Key: "userId", Value: "u1"},
				{Key: "meetingName", Value: "Quarterly review"},
			},
		))

		meeting, err := coll.Get(ctx, "42")

		require.NoError(mt, err)
		assert.Equal(mt, "Quarterly review", meeting.MeetingName)
	})

	mt.Run("scenario not found", func(mt *mtest.T) {
		coll := NewScenariosCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, ScenariosCollectionName), mtest.FirstBatch))

		scenario, err := coll.Get(ctx, "7")

		assert.NoError(mt, err)
		assert.Nil(mt, scenario)
	})

	mt.Run("custom scenarios by user", func(mt *mtest.T) {
		coll := NewScenariosCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, ScenariosCollectionName), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "7"},
				{Key: "userId", Value: "u1"},
				{Key: "title", Value: "Landlord call"},
				{Key: "scenarioType", Value: "custom"},
			},
			bson.D{
				{Key: "_id", Value: "6"},
				{Key: "userId", Value: "u1"},
				{Key: "title", Value: "Gym signup"},
				{Key: "scenarioType", Value: "custom"},
			},
		))

		scenarios, err := coll.ListCustomByUser(ctx, "u1", 20)

		require.NoError(mt, err)
		require.Len(mt, scenarios, 2)
		assert.Equal(mt, "Landlord call", scenarios[0].Title)
		assert.Equal(mt, "6", scenarios[1].ID)
	})

	mt.Run("user by username", func(mt *mtest.T) {
		coll := NewUsersCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, UsersCollectionName), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "u1"},
				{Key: "username", Value: "marie"},
				{Key: "isActive", Value: true},
			},
		))

		user, err := coll.GetByUsername(ctx, "marie")

		require.NoError(mt, err)
		assert.Equal(mt, "u1", user.ID)
		assert.True(mt, user.IsActive)
	})

	mt.Run("user lookup error", func(mt *mtest.T) {
		coll := NewUsersCollection(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "unauthorized",
		}))

		user, err := coll.GetByUsername(ctx, "marie")

		assert.Error(mt, err)
		assert.Nil(mt, user)
	})
}
