package models

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// NewError creates an error envelope.
func NewError(requestID, message string) *ErrorResponse {
	return &ErrorResponse{
		Status:    StatusError,
		Message:   message,
		RequestID: requestID,
	}
}

// Write writes the envelope as JSON with the given status code.
func (e *ErrorResponse) Write(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	if e.RequestID != "" {
		w.Header().Set("X-Request-Id", e.RequestID)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e)
}
