package dto

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status          string            `json:"status"`
	Components      map[string]string `json:"components,omitempty"`
	LiveConnections int               `json:"live_connections"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// SSEChunk is the payload of one streamed chat fragment.
type SSEChunk struct {
	Content string `json:"content"`
}
