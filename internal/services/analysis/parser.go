package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

// report is the decoded model reply before it becomes a Feedback.
type report struct {
	ConversationExchanges []map[string]interface{}
	Mistakes              []map[string]interface{}
	Strengths             []string
	Suggestions           []string
	ImprovedSentences     []map[string]interface{}
	VocabularySuggestions map[string]interface{}
	WordBank              map[string][]string
	Scores                models.FeedbackScores
}

var vocabularyKeys = []string{"basic_to_advanced", "missing_expressions", "contextual_vocabulary"}

var wordBankKeys = []string{"essential_corrections", "recommended_vocabulary", "advanced_options"}

func fallbackReport() *report {
	return &report{
		ConversationExchanges: []map[string]interface{}{},
		Mistakes:              []map[string]interface{}{},
		Strengths:             []string{"Good effort in the conversation"},
		Suggestions:           []string{"Keep practicing"},
		ImprovedSentences:     []map[string]interface{}{},
		VocabularySuggestions: emptyVocabulary(),
		WordBank:              emptyWordBank(),
		Scores:                defaultScores(),
	}
}

func emptyVocabulary() map[string]interface{} {
	v := make(map[string]interface{}, len(vocabularyKeys))
	for _, k := range vocabularyKeys {
		v[k] = []interface{}{}
	}
	return v
}

func emptyWordBank() map[string][]string {
	w := make(map[string][]string, len(wordBankKeys))
	for _, k := range wordBankKeys {
		w[k] = []string{}
	}
	return w
}

func defaultScores() models.FeedbackScores {
	return models.FeedbackScores{
		Overall:       models.DefaultScore,
		Fluency:       models.DefaultScore,
		Grammar:       models.DefaultScore,
		Vocabulary:    models.DefaultScore,
		Pronunciation: models.DefaultScore,
	}
}

// parseReport extracts the JSON object from a model reply. Markdown code fences and
// text around the object are tolerated.
func parseReport(reply string) (*report, error) {
	body := extractJSON(reply)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}

	r := &report{
		ConversationExchanges: objectList(raw["conversation_exchanges"]),
		Mistakes:              objectList(raw["mistakes"]),
		Strengths:             stringList(firstOf(raw, "strengths", "user_strengths")),
		Suggestions:           stringList(firstOf(raw, "suggestions", "response_improvement_suggestions")),
		ImprovedSentences:     objectList(raw["improved_sentences"]),
		VocabularySuggestions: emptyVocabulary(),
		WordBank:              emptyWordBank(),
		Scores:                parseScores(raw),
	}

	if vocab, ok := raw["vocabulary_suggestions"].(map[string]interface{}); ok {
		for k, v := range vocab {
			r.VocabularySuggestions[k] = v
		}
	}
	if bank, ok := raw["word_bank"].(map[string]interface{}); ok {
		for k, v := range bank {
			r.WordBank[k] = stringList(v)
		}
	}

	return r, nil
}

func extractJSON(reply string) string {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func firstOf(raw map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func objectList(v interface{}) []map[string]interface{} {
	items, _ := v.([]interface{})
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			out = append(out, obj)
		}
	}
	return out
}

// stringList keeps string entries. Objects contribute their "word" or "text" field.
func stringList(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		case map[string]interface{}:
			for _, k := range []string{"word", "text"} {
				if s, ok := t[k].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}

// parseScores reads flat "<name>_score" keys, falling back to a nested "scores"
// object. Missing or unreadable values default to models.DefaultScore.
func parseScores(raw map[string]interface{}) models.FeedbackScores {
	nested, _ := raw["scores"].(map[string]interface{})

	read := func(name string) int {
		if v, ok := toScore(raw[name+"_score"]); ok {
			return v
		}
		if v, ok := toScore(nested[name]); ok {
			return v
		}
		if v, ok := toScore(nested[name+"_score"]); ok {
			return v
		}
		return models.DefaultScore
	}

	return models.FeedbackScores{
		Overall:       read("overall"),
		Fluency:       read("fluency"),
		Grammar:       read("grammar"),
		Vocabulary:    read("vocabulary"),
		Pronunciation: read("pronunciation"),
	}
}

func toScore(v interface{}) (int, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return int(math.Max(0, math.Min(100, math.Round(f)))), true
}
