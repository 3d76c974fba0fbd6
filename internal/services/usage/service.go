// Package usage records and reports token usage of model invocations.
package usage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/pkg/metrics"
)

// DefaultListLimit caps the records returned by ListByUser.
const DefaultListLimit = 500

// Price is the USD price per 1K tokens of a model family.
type Price struct {
	Prompt     float64
	Completion float64
}

// prices are matched on the longest model id prefix.
var prices = map[string]Price{
	"gpt-3.5-turbo": {Prompt: 0.0005, Completion: 0.0015},
	"gpt-4":         {Prompt: 0.03, Completion: 0.06},
	"gpt-4-turbo":   {Prompt: 0.01, Completion: 0.03},
}

// CalculateCost returns the USD cost of a call. Unknown models cost nothing.
func CalculateCost(model string, promptTokens, completionTokens int) float64 {
	var (
		best  Price
		match int
	)
	for prefix, price := range prices {
		if strings.HasPrefix(model, prefix) && len(prefix) > match {
			best, match = price, len(prefix)
		}
	}
	if match == 0 {
		return 0
	}
	return float64(promptTokens)/1000*best.Prompt + float64(completionTokens)/1000*best.Completion
}

// RecordInput describes one model invocation to account for.
type RecordInput struct {
	UserID    string
	SessionID string
	Model     string
	Usage     models.TokenUsage
	Context   string
	WithCost  bool
}

// Service records usage and aggregates it per user.
type Service struct {
	records docdb.UsageCollection
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService creates a usage service. Metrics are optional.
func NewService(records docdb.UsageCollection, m *metrics.Metrics) (*Service, error) {
	if records == nil {
		return nil, fmt.Errorf("usage collection is required")
	}
	return &Service{
		records: records,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Record persists a usage record. TotalTokens is always prompt plus completion.
func (s *Service) Record(ctx context.Context, in *RecordInput) (*models.UsageRecord, error) {
	if in == nil || in.UserID == "" {
		return nil, errors.NewValidationError("user ID is required", "")
	}

	tokens := in.Usage.Normalize()
	record := &models.UsageRecord{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		SessionID:        in.SessionID,
		Model:            in.Model,
		PromptTokens:     tokens.PromptTokens,
		CompletionTokens: tokens.CompletionTokens,
		TotalTokens:      tokens.TotalTokens,
		Context:          in.Context,
		Timestamp:        s.now().UTC(),
	}
	if in.WithCost {
		cost := CalculateCost(in.Model, tokens.PromptTokens, tokens.CompletionTokens)
		record.Cost = &cost
	}

	if err := s.records.Insert(ctx, record); err != nil {
		return nil, errors.NewPersistenceError("save usage record", err)
	}

	s.metrics.RecordTokens(record.Model, record.PromptTokens, record.CompletionTokens)
	if record.Cost != nil {
		s.metrics.RecordCost(record.Model, *record.Cost)
	}
	return record, nil
}

// ListByUser lists the records of a user in [from, to], newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]*models.UsageRecord, error) {
	records, err := s.records.ListByUser(ctx, &docdb.ListUsageOptions{
		UserID: userID,
		From:   from,
		To:     to,
		Limit:  DefaultListLimit,
	})
	if err != nil {
		return nil, errors.NewPersistenceError("load usage records", err)
	}
	return records, nil
}

// Summary aggregates the usage of a user in [from, to].
func (s *Service) Summary(ctx context.Context, userID string, from, to time.Time) (*models.UsageSummary, error) {
	byModel, err := s.records.SummarizeByModel(ctx, &docdb.ListUsageOptions{
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, errors.NewPersistenceError("summarize usage", err)
	}

	summary := &models.UsageSummary{
		From:    from,
		To:      to,
		ByModel: byModel,
	}
	if summary.ByModel == nil {
		summary.ByModel = []models.ModelUsage{}
	}
	for _, m := range byModel {
		summary.TotalRequests += m.Requests
		summary.TotalTokens += m.TotalTokens
		summary.TotalCost += m.Cost
	}
	return summary, nil
}
