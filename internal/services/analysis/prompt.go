package analysis

import (
	"fmt"
	"strings"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

const promptTemplate = `You are an experienced %[1]s teacher reviewing a practice conversation.
Analyze only the USER turns and explain what a fluent %[1]s speaker would have said instead.

CONVERSATION TRANSCRIPT:
%[2]s

Reply with a single JSON object and nothing else, using these keys:
- "conversation_exchanges": one object per USER turn with "ai_message", "user_response",
  "ideal_response", "alternative_responses" (list) and "why_ideal_is_better"
- "mistakes": objects with "original", "correction", "explanation" and "type"
- "strengths": list of short strings
- "suggestions": list of short strings
- "improved_sentences": objects with "original" and "improved"
- "vocabulary_suggestions": object with lists "basic_to_advanced", "missing_expressions"
  and "contextual_vocabulary"
- "word_bank": object with string lists "essential_corrections", "recommended_vocabulary"
  and "advanced_options"
- "overall_score", "fluency_score", "grammar_score", "vocabulary_score",
  "pronunciation_score": integers from 0 to 100`

// BuildTranscript renders messages as "ROLE: content" lines.
func BuildTranscript(messages []*models.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(msg.Role)), msg.Content))
	}
	return strings.Join(lines, "\n")
}

func buildPrompt(languageName, transcript string) string {
	return fmt.Sprintf(promptTemplate, languageName, transcript)
}
