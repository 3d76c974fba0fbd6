package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	domainerrors "github.com/lingopal/conversation-service/internal/domain/errors"
	"github.com/lingopal/conversation-service/internal/domain/models"
)

// Client event types.
const (
	EventVoiceInput          = "voice_input"
	EventPing                = "ping"
	EventAnalyzeConversation = "analyze_conversation"
	EventEndConversation     = "end_conversation"
)

// Server event types.
const (
	EventSessionCreated   = "session_created"
	EventSessionResumed   = "session_resumed"
	EventReady            = "ready"
	EventAssistantMessage = "assistant_message"
	EventAnalysis         = "analysis"
	EventKeepalive        = "keepalive"
	EventPong             = "pong"
	EventError            = "error"
)

// Client messages.

type VoiceInput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Ping struct {
	Type string `json:"type"`
}

type AnalyzeConversation struct {
	Type            string `json:"type"`
	ForceReanalysis bool   `json:"force_reanalysis"`
}

type EndConversation struct {
	Type string `json:"type"`
}

// ErrInvalidJSON is returned for frames that are not a JSON object. Its message
// is sent back to the client as is.
var ErrInvalidJSON = domainerrors.NewProtocolError("Invalid JSON format")

// UnknownEventError is returned for a well formed frame with an unsupported type.
type UnknownEventError struct {
	Type string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

// DecodeClientEvent decodes one text frame into one of the client message types.
func DecodeClientEvent(data []byte) (any, error) {
	var envelope struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, ErrInvalidJSON
	}
	if envelope.Type == nil {
		return nil, &UnknownEventError{Type: "unknown"}
	}

	switch typ := strings.TrimSpace(*envelope.Type); typ {
	case EventVoiceInput:
		var msg VoiceInput
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, ErrInvalidJSON
		}
		return msg, nil
	case EventPing:
		return Ping{Type: typ}, nil
	case EventAnalyzeConversation:
		var msg AnalyzeConversation
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, ErrInvalidJSON
		}
		return msg, nil
	case EventEndConversation:
		return EndConversation{Type: typ}, nil
	default:
		return nil, &UnknownEventError{Type: typ}
	}
}

// Server messages.

type SessionEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

type MessageEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type AssistantMessageEvent struct {
	Type  string            `json:"type"`
	Text  string            `json:"text"`
	Usage models.TokenUsage `json:"usage"`
}

type AnalysisEvent struct {
	Type                  string                   `json:"type"`
	FeedbackID            string                   `json:"feedback_id"`
	ConversationExchanges []map[string]interface{} `json:"conversation_exchanges"`
	Mistakes              []map[string]interface{} `json:"mistakes"`
	Strengths             []string                 `json:"strengths"`
	Suggestions           []string                 `json:"suggestions"`
	ImprovedSentences     []map[string]interface{} `json:"improved_sentences"`
	VocabularySuggestions map[string]interface{}   `json:"vocabulary_suggestions"`
	WordBank              map[string][]string      `json:"word_bank"`
	Scores                models.FeedbackScores    `json:"scores"`
}

func newSessionCreated(sessionID string) SessionEvent {
	return SessionEvent{Type: EventSessionCreated, SessionID: sessionID}
}

func newSessionResumed(sessionID string) SessionEvent {
	return SessionEvent{Type: EventSessionResumed, SessionID: sessionID, Message: "Resuming previous conversation"}
}

func newReady() MessageEvent {
	return MessageEvent{Type: EventReady, Message: "Connected. Start speaking..."}
}

func newKeepalive() MessageEvent {
	return MessageEvent{Type: EventKeepalive, Message: "Connection is alive"}
}

func newPong() MessageEvent {
	return MessageEvent{Type: EventPong, Message: "pong"}
}

func newError(message string) MessageEvent {
	return MessageEvent{Type: EventError, Message: message}
}

func newAnalysis(fb *models.Feedback) AnalysisEvent {
	return AnalysisEvent{
		Type:                  EventAnalysis,
		FeedbackID:            fb.ID,
		ConversationExchanges: fb.ConversationExchanges,
		Mistakes:              fb.Mistakes,
		Strengths:             fb.Strengths,
		Suggestions:           fb.Suggestions,
		ImprovedSentences:     fb.ImprovedSentences,
		VocabularySuggestions: fb.VocabularySuggestions,
		WordBank:              fb.WordBank,
		Scores:                fb.Scores,
	}
}
