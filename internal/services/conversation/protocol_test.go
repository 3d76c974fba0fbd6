package conversation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingopal/conversation-service/internal/domain/models"
)

func TestDecodeClientEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want any
	}{
		{"voice input", `{"type":"voice_input","text":"Bonjour"}`, VoiceInput{Type: EventVoiceInput, Text: "Bonjour"}},
		{"voice input without text", `{"type":"voice_input"}`, VoiceInput{Type: EventVoiceInput}},
		{"ping", `{"type":"ping"}`, Ping{Type: EventPing}},
		{"analyze", `{"type":"analyze_conversation","force_reanalysis":true}`, AnalyzeConversation{Type: EventAnalyzeConversation, ForceReanalysis: true}},
		{"analyze default", `{"type":"analyze_conversation"}`, AnalyzeConversation{Type: EventAnalyzeConversation}},
		{"end", `{"type":"end_conversation"}`, EndConversation{Type: EventEndConversation}},
		{"extra fields", `{"type":"ping","ts":123}`, Ping{Type: EventPing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClientEvent([]byte(tt.data))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeClientEvent_Errors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		_, err := DecodeClientEvent([]byte(`{"type":`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
		assert.EqualError(t, err, "PROTOCOL_ERROR: Invalid JSON format")
	})

	t.Run("non string type", func(t *testing.T) {
		_, err := DecodeClientEvent([]byte(`{"type":42}`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("wrong field type", func(t *testing.T) {
		_, err := DecodeClientEvent([]byte(`{"type":"voice_input","text":7}`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := DecodeClientEvent([]byte(`{"text":"hi"}`))

		var unknown *UnknownEventError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "unknown", unknown.Type)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := DecodeClientEvent([]byte(`{"type":"dance"}`))

		var unknown *UnknownEventError
		require.True(t, errors.As(err, &unknown))
		assert.EqualError(t, err, "unknown message type: dance")
	})
}

func TestServerEvents_Wire(t *testing.T) {
	data, err := json.Marshal(newSessionCreated("s1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"session_created","session_id":"s1"}`, string(data))

	data, err = json.Marshal(newSessionResumed("s1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"session_resumed","session_id":"s1","message":"Resuming previous conversation"}`, string(data))

	data, err = json.Marshal(AssistantMessageEvent{
		Type:  EventAssistantMessage,
		Text:  "Salut",
		Usage: models.TokenUsage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"assistant_message","text":"Salut","usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`, string(data))
}

func TestNewAnalysis(t *testing.T) {
	fb := &models.Feedback{
		ID:          "fb1",
		Strengths:   []string{"clear answers"},
		Suggestions: []string{"use the past tense"},
		WordBank:    map[string][]string{"nouns": {"entretien"}},
		Scores:      models.FeedbackScores{Overall: 82, Fluency: 80, Grammar: 75, Vocabulary: 85, Pronunciation: 70},
	}

	event := newAnalysis(fb)

	assert.Equal(t, EventAnalysis, event.Type)
	assert.Equal(t, "fb1", event.FeedbackID)
	assert.Equal(t, fb.Strengths, event.Strengths)
	assert.Equal(t, fb.Suggestions, event.Suggestions)
	assert.Equal(t, fb.WordBank, event.WordBank)
	assert.Equal(t, 82, event.Scores.Overall)
}
