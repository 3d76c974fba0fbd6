// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message     string  `json:"message" binding:"required,max=32000"`
	SessionID   string  `json:"session_id,omitempty"`
	Temperature float64 `json:"temperature,omitempty" binding:"omitempty,min=0,max=2"`
	MaxTokens   int     `json:"max_tokens,omitempty" binding:"omitempty,min=1"`
	Stream      bool    `json:"stream,omitempty"`
}

// CreateSessionRequest is the body of POST /chat/sessions. The scenario pair is
// resolved into a descriptor stored in the session metadata.
type CreateSessionRequest struct {
	Title        string                 `json:"title,omitempty" binding:"max=200"`
	Language     string                 `json:"language,omitempty"`
	ScenarioID   string                 `json:"scenario_id,omitempty"`
	ScenarioType string                 `json:"scenario_type,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateSessionRequest is the body of PUT /chat/sessions/{id}.
type UpdateSessionRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

// AnalyzeRequest is the body of POST /chat/sessions/{id}/analysis.
type AnalyzeRequest struct {
	ForceReanalysis bool   `json:"force_reanalysis"`
	Language        string `json:"language,omitempty"`
}

// PageQuery holds skip/limit pagination query parameters.
type PageQuery struct {
	Skip  int64 `form:"skip" binding:"omitempty,min=0"`
	Limit int64 `form:"limit" binding:"omitempty,min=1,max=500"`
}

// UsageQuery bounds a usage listing. Both ends are RFC 3339 timestamps.
type UsageQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// UsageSummaryQuery sets the look-back window of the usage summary.
type UsageSummaryQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}
