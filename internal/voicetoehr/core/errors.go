// internal/voicetoehr/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Domain specific errors
var (
	// Gateway errors
	ErrCredentialMissing = errors.New("deepgram API key not configured")
	ErrAudioMissing      = errors.New("no audio data provided")
	ErrInvalidAudio      = errors.New("invalid audio data")
	ErrNoTranscription   = errors.New("no transcription results")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// Recorder errors
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")
	ErrCaptureInProgress     = errors.New("capture already in progress")
	ErrNotRecording          = errors.New("no recording in progress")
	ErrTranscriptionInFlight = errors.New("transcription already in flight")
	ErrNoSpeechDetected      = errors.New("no speech detected in audio")
	ErrEmptyCapture          = errors.New("no audio captured")

	// Session errors
	ErrInvalidSubject     = errors.New("invalid subject id")
	ErrTranscriptNotFound = errors.New("transcript not found")
)

// Error types for better error handling

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
	}
}

// ServiceError represents an error in the gateway or recorder service
type ServiceError struct {
	Code    string
	Message string
	Cause   error
}

func (e ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(code, message string, cause error) ServiceError {
	return ServiceError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// UpstreamError is a non-successful response from the speech recognizer.
// Message carries the upstream's own message when it sent one.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream error: %s", e.Message)
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

// ErrorType classifies err for metrics labels
func ErrorType(err error) string {
	var upstreamErr *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialMissing):
		return "credential_missing"
	case errors.Is(err, ErrAudioMissing):
		return "audio_missing"
	case errors.Is(err, ErrInvalidAudio):
		return "invalid_audio"
	case errors.Is(err, ErrNoTranscription):
		return "no_transcription"
	case errors.As(err, &upstreamErr):
		return "upstream"
	default:
		return "internal"
	}
}
