package models

import "time"

// Usage context tags.
const (
	UsageContextConversation = "conversation"
	UsageContextChat         = "chat"
	UsageContextAnalysis     = "conversation_analysis"
)

// TokenUsage is the token accounting of one model call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens" bson:"promptTokens"`
	CompletionTokens int `json:"completion_tokens" bson:"completionTokens"`
	TotalTokens      int `json:"total_tokens" bson:"totalTokens"`
}

// Normalize forces TotalTokens to equal prompt plus completion.
func (u TokenUsage) Normalize() TokenUsage {
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
	return u
}

// UsageRecord is the persisted accounting entry for one model invocation.
// It is created once and never mutated.
type UsageRecord struct {
	ID               string    `json:"id" bson:"_id"`
	UserID           string    `json:"user_id" bson:"userId"`
	SessionID        string    `json:"session_id,omitempty" bson:"sessionId,omitempty"`
	Model            string    `json:"model" bson:"model"`
	PromptTokens     int       `json:"prompt_tokens" bson:"promptTokens"`
	CompletionTokens int       `json:"completion_tokens" bson:"completionTokens"`
	TotalTokens      int       `json:"total_tokens" bson:"totalTokens"`
	Cost             *float64  `json:"cost,omitempty" bson:"cost,omitempty"`
	Context          string    `json:"context,omitempty" bson:"context,omitempty"`
	Timestamp        time.Time `json:"timestamp" bson:"timestamp"`
}

// ModelUsage aggregates usage of a single model.
type ModelUsage struct {
	Model        string  `json:"model" bson:"_id"`
	Requests     int64   `json:"requests" bson:"requests"`
	PromptTokens int64   `json:"prompt_tokens" bson:"promptTokens"`
	OutputTokens int64   `json:"completion_tokens" bson:"completionTokens"`
	TotalTokens  int64   `json:"total_tokens" bson:"totalTokens"`
	Cost         float64 `json:"cost" bson:"cost"`
}

// UsageSummary aggregates usage of a user over a time window.
type UsageSummary struct {
	From          time.Time    `json:"from"`
	To            time.Time    `json:"to"`
	TotalRequests int64        `json:"total_requests"`
	TotalTokens   int64        `json:"total_tokens"`
	TotalCost     float64      `json:"total_cost"`
	ByModel       []ModelUsage `json:"by_model"`
}
