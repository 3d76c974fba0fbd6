// Package scenario resolves scenario references into the descriptor that frames a
// conversation.
package scenario

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lingopal/conversation-service/internal/core/docdb"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

const (
	meetingExcerptLength = 200
	meetingRole          = "meeting participant"
)

// Fallback descriptor fields for a custom reference whose record is missing or foreign.
const (
	fallbackCustomTitle   = "Custom Scenario"
	fallbackCustomRole    = "conversation partner"
	fallbackCustomSummary = "custom practice scenario"
)

// Resolver turns scenario references into descriptors.
type Resolver struct {
	meetings  docdb.MeetingsCollection
	scenarios docdb.ScenariosCollection
}

// NewResolver creates a resolver over the meeting and practice scenario stores.
func NewResolver(meetings docdb.MeetingsCollection, scenarios docdb.ScenariosCollection) *Resolver {
	return &Resolver{meetings: meetings, scenarios: scenarios}
}

// Resolve returns the descriptor for ref, or nil when the reference is incomplete,
// unknown, not found or not owned by the principal. Lookup failures are logged and
// also yield nil. The one exception is a custom reference, which falls back to a
// generic descriptor instead of nil.
func (r *Resolver) Resolve(ctx context.Context, ref models.ScenarioReference, principal *models.Principal, language string) *models.ScenarioDescriptor {
	parsed, ok := Parse(ref)
	if !ok {
		log.Debug().
			Str("scenario_id", ref.ID).
			Str("scenario_type", ref.Type).
			Msg("ignoring unusable scenario reference")
		return nil
	}

	logger := log.With().
		Str("scenario_id", ref.ID).
		Str("scenario_type", string(parsed.scenarioType())).
		Str("language", language).
		Logger()

	var (
		descriptor *models.ScenarioDescriptor
		err        error
	)

	switch v := parsed.(type) {
	case Predefined:
		descriptor = r.resolvePredefined(v)
	case PastMeeting:
		descriptor, err = r.resolvePastMeeting(ctx, v, principal)
	case Custom:
		descriptor, err = r.resolveCustom(ctx, v, principal)
	}

	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve scenario")
		return nil
	}
	if descriptor == nil {
		logger.Warn().Msg("scenario not available")
		return nil
	}

	descriptor.ID = parsed.rawID()
	descriptor.Type = parsed.scenarioType()

	logger.Info().
		Str("title", descriptor.Title).
		Str("role", descriptor.Role).
		Msg("scenario resolved")
	return descriptor
}

func (r *Resolver) resolvePredefined(ref Predefined) *models.ScenarioDescriptor {
	entry, ok := lookupPredefined(ref.Key)
	if !ok {
		return nil
	}
	return &models.ScenarioDescriptor{
		Title:   entry.Title,
		Role:    entry.Role,
		Summary: entry.Summary,
	}
}

func (r *Resolver) resolvePastMeeting(ctx context.Context, ref PastMeeting, principal *models.Principal) (*models.ScenarioDescriptor, error) {
	if r.meetings == nil {
		return nil, fmt.Errorf("meeting store is not configured")
	}

	meeting, err := r.meetings.Get(ctx, ref.MeetingID)
	if err != nil {
		return nil, err
	}
	if meeting == nil || principal == nil || meeting.UserID != principal.ID {
		return nil, nil
	}

	return &models.ScenarioDescriptor{
		Title:   meeting.MeetingName,
		Role:    meetingRole,
		Summary: MeetingSummary(meeting),
	}, nil
}

func (r *Resolver) resolveCustom(ctx context.Context, ref Custom, principal *models.Principal) (*models.ScenarioDescriptor, error) {
	if r.scenarios == nil {
		return nil, fmt.Errorf("scenario store is not configured")
	}

	record, err := r.scenarios.Get(ctx, ref.ScenarioID)
	if err != nil {
		return nil, err
	}
	if record == nil || principal == nil || record.UserID != principal.ID {
		return &models.ScenarioDescriptor{
			Title:   fallbackCustomTitle,
			Role:    fallbackCustomRole,
			Summary: fallbackCustomSummary,
		}, nil
	}

	return &models.ScenarioDescriptor{
		Title:   record.Title,
		Role:    record.Role,
		Summary: record.Description,
	}, nil
}

// MeetingSummary describes a meeting without its full transcription. Transcriptions
// longer than the excerpt length contribute their first runes as the topic.
func MeetingSummary(meeting *models.MeetingAnalysis) string {
	summary := "meeting about " + meeting.MeetingName

	runes := []rune(meeting.Transcription)
	if len(runes) > meetingExcerptLength {
		summary += " - topic: " + string(runes[:meetingExcerptLength]) + "..."
	}
	return summary
}
