package scenario

import (
	"strings"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

// Reference is a parsed scenario reference. Exactly one of the variant types
// below implements it.
type Reference interface {
	scenarioType() models.ScenarioType
	rawID() string
}

// Predefined selects an entry of the built-in role catalog.
type Predefined struct {
	Key string
}

// PastMeeting selects a stored meeting analysis.
type PastMeeting struct {
	MeetingID string
	raw       string
}

// Custom selects a user-authored practice scenario.
type Custom struct {
	ScenarioID string
	raw        string
}

func (p Predefined) scenarioType() models.ScenarioType  { return models.ScenarioPredefined }
func (p Predefined) rawID() string                      { return p.Key }
func (p PastMeeting) scenarioType() models.ScenarioType { return models.ScenarioPastMeeting }
func (p PastMeeting) rawID() string                     { return p.raw }
func (c Custom) scenarioType() models.ScenarioType      { return models.ScenarioCustom }
func (c Custom) rawID() string                          { return c.raw }

const (
	meetingIDPrefix = "meeting_"
	customIDPrefix  = "custom_"
)

// Parse converts a client supplied reference into its variant. It returns false
// for incomplete references and unknown types.
func Parse(ref models.ScenarioReference) (Reference, bool) {
	if ref.IsZero() {
		return nil, false
	}

	scenarioType, ok := models.ParseScenarioType(ref.Type)
	if !ok {
		return nil, false
	}

	id := strings.TrimSpace(ref.ID)
	switch scenarioType {
	case models.ScenarioPredefined:
		return Predefined{Key: id}, true
	case models.ScenarioPastMeeting:
		return PastMeeting{MeetingID: strings.TrimPrefix(id, meetingIDPrefix), raw: id}, true
	case models.ScenarioCustom:
		return Custom{ScenarioID: strings.TrimPrefix(id, customIDPrefix), raw: id}, true
	}
	return nil, false
}
