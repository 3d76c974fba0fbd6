package conversation

import (
	"fmt"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

const systemPromptTemplate = `You are taking on the role of %[1]s in a %[2]s conversation practice. The topic is: %[3]s.

Keep the conversation natural and human. Vary the length of your replies, react to what the user says and ask follow-up questions. Stay in character.

You are helping the user get comfortable speaking %[2]s in a realistic situation. Let the user lead when it makes sense and gently guide them when they need help.

Keep your replies short and engaging.`

// SystemPrompt builds the instruction that frames a scenario conversation.
func SystemPrompt(scenario *models.ScenarioDescriptor, language string) string {
	name, ok := models.LanguageName(language)
	if !ok {
		name = language
	}
	return fmt.Sprintf(systemPromptTemplate, scenario.Role, name, scenario.Summary)
}

// withSystemPrompt returns the history for the next model call. The scenario
// instruction is prepended only when the transcript has no system turn yet.
func withSystemPrompt(transcript []models.ChatTurn, scenario *models.ScenarioDescriptor, language string) []models.ChatTurn {
	if scenario == nil || models.HasSystemTurn(transcript) {
		return append([]models.ChatTurn(nil), transcript...)
	}

	history := make([]models.ChatTurn, 0, len(transcript)+1)
	history = append(history, models.ChatTurn{Role: models.RoleSystem, Content: SystemPrompt(scenario, language)})
	return append(history, transcript...)
}
