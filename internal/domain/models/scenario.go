package models

import (
	"strings"
	"time"
)

// ScenarioType selects where a scenario descriptor is resolved from.
type ScenarioType string

const (
	// ScenarioPredefined is a fixed in-process role catalog entry.
	ScenarioPredefined ScenarioType = "predefined"
	// ScenarioPastMeeting is derived from a stored meeting analysis.
	ScenarioPastMeeting ScenarioType = "past-meeting"
	// ScenarioCustom is a user-authored practice scenario.
	ScenarioCustom ScenarioType = "custom"
)

// ParseScenarioType normalizes a client supplied scenario type. The legacy
// "meeting" spelling maps to ScenarioPastMeeting.
func ParseScenarioType(raw string) (ScenarioType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "predefined":
		return ScenarioPredefined, true
	case "past-meeting", "past_meeting", "meeting":
		return ScenarioPastMeeting, true
	case "custom":
		return ScenarioCustom, true
	}
	return "", false
}

// ScenarioReference identifies a scenario as supplied by a client.
type ScenarioReference struct {
	ID   string
	Type string
}

// IsZero reports whether the reference is incomplete. Both parts are required.
func (r ScenarioReference) IsZero() bool {
	return strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Type) == ""
}

// ScenarioDescriptor is the short role/summary framing used to seed the
// system instruction. It is embedded in session metadata at creation.
type ScenarioDescriptor struct {
	ID      string       `json:"id" bson:"id"`
	Type    ScenarioType `json:"type" bson:"type"`
	Title   string       `json:"title" bson:"title"`
	Summary string       `json:"description" bson:"description"`
	Role    string       `json:"role" bson:"role"`
}

// PracticeScenario is a user-authored scenario record.
type PracticeScenario struct {
	ID           string    `json:"id" bson:"_id"`
	UserID       string    `json:"user_id" bson:"userId"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description" bson:"description"`
	Role         string    `json:"role" bson:"role"`
	Language     string    `json:"language" bson:"language"`
	ScenarioType string    `json:"scenario_type" bson:"scenarioType"`
	SourceID     string    `json:"source_id,omitempty" bson:"sourceId,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"`
}

// MeetingAnalysis is a previously analysed meeting transcript.
type MeetingAnalysis struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"user_id" bson:"userId"`
	Language      string    `json:"language" bson:"language"`
	MeetingName   string    `json:"meeting_name" bson:"meetingName"`
	Transcription string    `json:"transcription" bson:"transcription"`
	OverallScore  int       `json:"overall_score" bson:"overallScore"`
	CreatedAt     time.Time `json:"created_at" bson:"createdAt"`
}
