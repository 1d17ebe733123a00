package handlers

import "time"

// APIResponse is the envelope of informational endpoints
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func NewSuccessResponse(data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// TranscriptionResponse is the only success body of the voice-to-text endpoint
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// ErrorResponse is the error body of the voice-to-text endpoint
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

func NewErrorDetailsResponse(message, details string) *ErrorResponse {
	return &ErrorResponse{Error: message, Details: details}
}
