package handlers

import "github.com/vzahanych/ph-weather/internal/presentation"

// SearchRequest is one "Get Weather" trigger. An empty city is accepted here:
// it is a workflow outcome, not a malformed request.
type SearchRequest struct {
	City string `form:"city" json:"city" validate:"max=200,printable"`
}

// SearchResponse carries the caller's derived view after the interaction
type SearchResponse struct {
	SessionID string            `json:"session_id"`
	Outcome   string            `json:"outcome,omitempty"`
	View      presentation.View `json:"view"`
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string      `json:"error" validate:"required,min=1,max=500"`
	Code    string      `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string `json:"status" validate:"required,oneof=ok alive ready degraded unavailable"`
	Uptime    string `json:"uptime" validate:"required"`
	Timestamp string `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}
