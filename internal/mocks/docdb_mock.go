package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

// MockDocDBClient is a mock implementation of docdb.Client. The collection
// accessors return the embedded collection mocks.
type MockDocDBClient struct {
	mock.Mock
	SessionsColl  *MockSessionsCollection
	MessagesColl  *MockMessagesCollection
	UsageColl     *MockUsageCollection
	FeedbackColl  *MockFeedbackCollection
	MeetingsColl  *MockMeetingsCollection
	ScenariosColl *MockScenariosCollection
	UsersColl     *MockUsersCollection
}

// NewMockDocDBClient creates a client mock with fresh collection mocks.
func NewMockDocDBClient() *MockDocDBClient {
	return &MockDocDBClient{
		SessionsColl:  &MockSessionsCollection{},
		MessagesColl:  &MockMessagesCollection{},
		UsageColl:     &MockUsageCollection{},
		FeedbackColl:  &MockFeedbackCollection{},
		MeetingsColl:  &MockMeetingsCollection{},
		ScenariosColl: &MockScenariosCollection{},
		UsersColl:     &MockUsersCollection{},
	}
}

func (m *MockDocDBClient) Sessions() docdb.SessionsCollection   { return m.SessionsColl }
func (m *MockDocDBClient) Messages() docdb.MessagesCollection   { return m.MessagesColl }
func (m *MockDocDBClient) Usage() docdb.UsageCollection         { return m.UsageColl }
func (m *MockDocDBClient) Feedback() docdb.FeedbackCollection   { return m.FeedbackColl }
func (m *MockDocDBClient) Meetings() docdb.MeetingsCollection   { return m.MeetingsColl }
func (m *MockDocDBClient) Scenarios() docdb.ScenariosCollection { return m.ScenariosColl }
func (m *MockDocDBClient) Users() docdb.UsersCollection         { return m.UsersColl }

// Ping verifies the connection.
func (m *MockDocDBClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the connection.
func (m *MockDocDBClient) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// EnsureIndexes creates indexes.
func (m *MockDocDBClient) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSessionsCollection is a mock implementation of docdb.SessionsCollection.
type MockSessionsCollection struct {
	mock.Mock
}

// Insert stores a session.
func (m *MockSessionsCollection) Insert(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// Get retrieves a session.
func (m *MockSessionsCollection) Get(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

// ListByUser lists sessions.
func (m *MockSessionsCollection) ListByUser(ctx context.Context, opts *docdb.ListSessionsOptions) ([]*models.Session, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

// UpdateTitle changes a title.
func (m *MockSessionsCollection) UpdateTitle(ctx context.Context, id, title string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, title, at)
	return args.Bool(0), args.Error(1)
}

// Touch moves the update timestamp.
func (m *MockSessionsCollection) Touch(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// Delete removes a session.
func (m *MockSessionsCollection) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// EnsureIndexes creates indexes.
func (m *MockSessionsCollection) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMessagesCollection is a mock implementation of docdb.MessagesCollection.
type MockMessagesCollection struct {
	mock.Mock
}

// Insert appends a message.
func (m *MockMessagesCollection) Insert(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// ListBySession lists messages.
func (m *MockMessagesCollection) ListBySession(ctx context.Context, opts *docdb.ListMessagesOptions) ([]*models.Message, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// DeleteBySession removes messages.
func (m *MockMessagesCollection) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// CountBySession counts messages.
func (m *MockMessagesCollection) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// EnsureIndexes creates indexes.
func (m *MockMessagesCollection) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUsageCollection is a mock implementation of docdb.UsageCollection.
type MockUsageCollection struct {
	mock.Mock
}

// Insert stores a usage record.
func (m *MockUsageCollection) Insert(ctx context.Context, record *models.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// ListByUser lists usage records.
func (m *MockUsageCollection) ListByUser(ctx context.Context, opts *docdb.ListUsageOptions) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UsageRecord), args.Error(1)
}

// SummarizeByModel aggregates usage.
func (m *MockUsageCollection) SummarizeByModel(ctx context.Context, opts *docdb.ListUsageOptions) ([]models.ModelUsage, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ModelUsage), args.Error(1)
}

// EnsureIndexes creates indexes.
func (m *MockUsageCollection) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockFeedbackCollection is a mock implementation of docdb.FeedbackCollection.
type MockFeedbackCollection struct {
	mock.Mock
}

// Insert stores feedback.
func (m *MockFeedbackCollection) Insert(ctx context.Context, feedback *models.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

// Latest returns the newest feedback.
func (m *MockFeedbackCollection) Latest(ctx context.Context, userID, sessionID string) (*models.Feedback, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

// EnsureIndexes creates indexes.
func (m *MockFeedbackCollection) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMeetingsCollection is a mock implementation of docdb.MeetingsCollection.
type MockMeetingsCollection struct {
	mock.Mock
}

// Get retrieves a meeting analysis.
func (m *MockMeetingsCollection) Get(ctx context.Context, id string) (*models.MeetingAnalysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MeetingAnalysis), args.Error(1)
}

// MockScenariosCollection is a mock implementation of docdb.ScenariosCollection.
type MockScenariosCollection struct {
	mock.Mock
}

// Get retrieves a practice scenario.
func (m *MockScenariosCollection) Get(ctx context.Context, id string) (*models.PracticeScenario, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PracticeScenario), args.Error(1)
}

// ListCustomByUser lists the custom scenarios of a user.
func (m *MockScenariosCollection) ListCustomByUser(ctx context.Context, userID string, limit int64) ([]*models.PracticeScenario, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PracticeScenario), args.Error(1)
}

// MockUsersCollection is a mock implementation of docdb.UsersCollection.
type MockUsersCollection struct {
	mock.Mock
}

// GetByUsername retrieves a user.
func (m *MockUsersCollection) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
