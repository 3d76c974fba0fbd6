package handlers_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/chat"
	"github.com/lingopal/conversation-service/internal/services/scenario"
	"github.com/lingopal/conversation-service/internal/services/session"
	"github.com/lingopal/conversation-service/internal/services/usage"
)

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) Create(ctx context.Context, userID string, in *session.CreateInput) (*models.Session, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessionService) GetOwned(ctx context.Context, id, userID string) (*models.Session, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessionService) ListByUser(ctx context.Context, userID string, skip, limit int64) ([]*models.Session, error) {
	args := m.Called(ctx, userID, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *mockSessionService) UpdateTitle(ctx context.Context, id, userID, title string) (*models.Session, error) {
	args := m.Called(ctx, id, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockSessionService) Touch(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionService) Delete(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockSessionService) AppendMessage(ctx context.Context, message *models.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockSessionService) ListMessages(ctx context.Context, sessionID string, skip, limit int64) ([]*models.Message, error) {
	args := m.Called(ctx, sessionID, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *mockSessionService) BuildCacheKey(id string) string {
	return "session:" + id
}

type mockScenarioResolver struct {
	mock.Mock
}

func (m *mockScenarioResolver) Resolve(ctx context.Context, ref models.ScenarioReference, principal *models.Principal, language string) *models.ScenarioDescriptor {
	args := m.Called(ctx, ref, principal, language)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.ScenarioDescriptor)
}

type mockChatSender struct {
	mock.Mock
	chunks []string
}

func (m *mockChatSender) Send(ctx context.Context, principal *models.Principal, in *chat.SendInput) (*chat.SendResult, error) {
	args := m.Called(ctx, principal, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.SendResult), args.Error(1)
}

// Stream replays m.chunks through onChunk before returning the configured result.
func (m *mockChatSender) Stream(ctx context.Context, principal *models.Principal, in *chat.SendInput, onChunk func(string) error) (*chat.SendResult, error) {
	args := m.Called(ctx, principal, in)
	for _, chunk := range m.chunks {
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.SendResult), args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, principal *models.Principal, sessionID, language string, force bool) (*models.Feedback, error) {
	args := m.Called(ctx, principal, sessionID, language, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

func (m *mockAnalyzer) Latest(ctx context.Context, principal *models.Principal, sessionID string) (*models.Feedback, error) {
	args := m.Called(ctx, principal, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feedback), args.Error(1)
}

type mockCustomScenarios struct {
	mock.Mock
}

func (m *mockCustomScenarios) ListCustom(ctx context.Context, principal *models.Principal) ([]scenario.CustomEntry, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scenario.CustomEntry), args.Error(1)
}

type mockUsageReporter struct {
	mock.Mock
}

func (m *mockUsageReporter) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UsageRecord), args.Error(1)
}

func (m *mockUsageReporter) Summary(ctx context.Context, userID string, from, to time.Time) (*models.UsageSummary, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageSummary), args.Error(1)
}

type mockPrincipalResolver struct {
	mock.Mock
}

func (m *mockPrincipalResolver) Resolve(ctx context.Context, token string) (*models.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

type mockUsageRecorder struct {
	mock.Mock
}

func (m *mockUsageRecorder) Record(ctx context.Context, in *usage.RecordInput) (*models.UsageRecord, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UsageRecord), args.Error(1)
}
