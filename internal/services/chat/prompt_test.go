package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

func TestScenarioPrompt(t *testing.T) {
	tests := []struct {
		name     string
		scenario *models.ScenarioDescriptor
		language string
		contains []string
		empty    bool
	}{
		{
			name:     "nil scenario",
			scenario: nil,
			language: "en",
			empty:    true,
		},
		{
			name:     "job interview",
			scenario: &models.ScenarioDescriptor{ID: "job_interview", Type: models.ScenarioPredefined},
			language: "es",
			contains: []string{"You are conducting a job interview in Spanish.", "- Speak ONLY in Spanish", "tell you about themselves"},
		},
		{
			name:     "restaurant",
			scenario: &models.ScenarioDescriptor{ID: "restaurant", Type: models.ScenarioPredefined},
			language: "it",
			contains: []string{"You are a waiter/waitress at a restaurant, speaking only in Italian.", "see the menu"},
		},
		{
			name:     "business meeting",
			scenario: &models.ScenarioDescriptor{ID: "business_meeting", Type: models.ScenarioPredefined},
			language: "en",
			contains: []string{"You are a colleague in a business meeting, speaking only in English.", "project updates"},
		},
		{
			name:     "travel",
			scenario: &models.ScenarioDescriptor{ID: "travel", Type: models.ScenarioPredefined},
			language: "fr",
			contains: []string{"You are a travel agent or hotel receptionist, speaking only in French."},
		},
		{
			name:     "shopping",
			scenario: &models.ScenarioDescriptor{ID: "shopping", Type: models.ScenarioPredefined},
			language: "de",
			contains: []string{"You are a shop assistant in a clothing store, speaking only in German."},
		},
		{
			name:     "doctor visit",
			scenario: &models.ScenarioDescriptor{ID: "doctor_visit", Type: models.ScenarioPredefined},
			language: "en",
			contains: []string{"You are a doctor in a medical consultation, speaking only in English.", "what brings them in today"},
		},
		{
			name:     "unknown predefined id falls back to title and description",
			scenario: &models.ScenarioDescriptor{ID: "museum", Type: models.ScenarioPredefined, Title: "Museum Tour", Summary: "Ask about the exhibits."},
			language: "it",
			contains: []string{"You are helping someone practice Italian in a Museum Tour scenario. Ask about the exhibits. Speak ONLY in Italian."},
		},
		{
			name:     "past meeting",
			scenario: &models.ScenarioDescriptor{ID: "m1", Type: models.ScenarioPastMeeting, Title: "Quarterly Review"},
			language: "en",
			contains: []string{"You are a colleague in a meeting similar to 'Quarterly Review', speaking only in English."},
		},
		{
			name:     "past meeting without title",
			scenario: &models.ScenarioDescriptor{ID: "m1", Type: models.ScenarioPastMeeting},
			language: "en",
			contains: []string{"meeting similar to 'Business Meeting'"},
		},
		{
			name:     "custom",
			scenario: &models.ScenarioDescriptor{ID: "c1", Type: models.ScenarioCustom, Title: "Landlord call", Summary: "The heating is broken.", Role: "landlord"},
			language: "en",
			contains: []string{"You are playing the role of landlord in the following scenario:", "Title: Landlord call", "Context: The heating is broken."},
		},
		{
			name:     "custom without role",
			scenario: &models.ScenarioDescriptor{ID: "c1", Type: models.ScenarioCustom, Title: "Chat"},
			language: "en",
			contains: []string{"You are playing the role of conversation partner"},
		},
		{
			name:     "unknown language code is used as is",
			scenario: &models.ScenarioDescriptor{ID: "travel", Type: models.ScenarioPredefined},
			language: "tlh",
			contains: []string{"speaking only in tlh"},
		},
		{
			name:     "unknown type",
			scenario: &models.ScenarioDescriptor{ID: "x", Type: models.ScenarioType("free")},
			language: "en",
			empty:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Execute
			prompt := ScenarioPrompt(tt.scenario, tt.language)

			// Assert
			if tt.empty {
				assert.Empty(t, prompt)
				return
			}
			for _, want := range tt.contains {
				assert.Contains(t, prompt, want)
			}
		})
	}
}

func TestWithScenarioPrompt(t *testing.T) {
	scenario := &models.ScenarioDescriptor{ID: "restaurant", Type: models.ScenarioPredefined}

	t.Run("no scenario", func(t *testing.T) {
		history := []models.ChatTurn{{Role: models.RoleUser, Content: "hi"}}

		assert.Equal(t, history, withScenarioPrompt(history, nil, "en"))
	})

	t.Run("user turn left by a failed call", func(t *testing.T) {
		history := []models.ChatTurn{{Role: models.RoleUser, Content: "hi"}}

		got := withScenarioPrompt(history, scenario, "en")

		assert.Len(t, got, 2)
		assert.Equal(t, models.RoleSystem, got[0].Role)
		assert.Equal(t, history[0], got[1])
	})

	t.Run("conversation already answered", func(t *testing.T) {
		history := []models.ChatTurn{
			{Role: models.RoleUser, Content: "hi"},
			{Role: models.RoleAssistant, Content: "Welcome"},
		}

		assert.Equal(t, history, withScenarioPrompt(history, scenario, "en"))
	})

	t.Run("unknown type adds nothing", func(t *testing.T) {
		got := withScenarioPrompt(nil, &models.ScenarioDescriptor{Type: "free"}, "en")

		assert.Empty(t, got)
	})
}
