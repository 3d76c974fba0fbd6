package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

// CustomListLimit caps the custom scenarios returned to a user.
const CustomListLimit = 20

// CustomEntry is a user-authored scenario as offered to clients. The ID carries
// the custom_ prefix so it can be passed back with scenario_type=custom.
type CustomEntry struct {
	ID          string              `json:"id"`
	Type        models.ScenarioType `json:"type"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Role        string              `json:"role"`
	Language    string              `json:"language"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ListCustom returns the principal's custom scenarios, newest first.
func (r *Resolver) ListCustom(ctx context.Context, principal *models.Principal) ([]CustomEntry, error) {
	if principal == nil {
		return nil, errors.NewUnauthorizedError("authentication required")
	}
	if r.scenarios == nil {
		return nil, fmt.Errorf("scenario store is not configured")
	}

	records, err := r.scenarios.ListCustomByUser(ctx, principal.ID, CustomListLimit)
	if err != nil {
		return nil, errors.NewPersistenceError("list custom scenarios", err)
	}

	entries := make([]CustomEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, CustomEntry{
			ID:          customIDPrefix + record.ID,
			Type:        models.ScenarioCustom,
			Title:       record.Title,
			Description: record.Description,
			Role:        record.Role,
			Language:    record.Language,
			CreatedAt:   record.CreatedAt,
		})
	}
	return entries, nil
}
