package core

import (
	"context"
)

// Primary Ports (APIs that drive our application)

// Gateway relays encoded audio to the speech recognizer
type Gateway interface {
	// CheckConfigured reports whether a recognizer credential is available
	CheckConfigured() error

	// Transcribe decodes the base64 payload and returns the recognized text
	Transcribe(ctx context.Context, input TranscribeInput) (*TranscriptionResult, error)
}

// IdentityProvider exposes the currently logged-in identity
type IdentityProvider interface {
	Current() *Identity
}

// Secondary Ports (SPIs that are driven by our application)

// SessionStore persists the identity and per-subject transcripts on the client
type SessionStore interface {
	GetIdentity(ctx context.Context) (*Identity, error)
	SetIdentity(ctx context.Context, identity Identity) error
	ClearIdentity(ctx context.Context) error

	// GetTranscript returns ErrTranscriptNotFound when nothing is stored for the subject
	GetTranscript(ctx context.Context, subjectID string) (string, error)
	SetTranscript(ctx context.Context, subjectID, text string) error

	// ClearTranscripts removes every transcript record and returns how many were removed
	ClearTranscripts(ctx context.Context) (int, error)
}

// SpeechRecognizer is the third-party speech-to-text service
type SpeechRecognizer interface {
	// IsConfigured checks whether the service credential is present
	IsConfigured() bool

	// Recognize sends raw audio and returns the normalized result
	Recognize(ctx context.Context, audio []byte, contentType string) (*RecognitionResult, error)
}

// TranscriptionClient submits base64 audio to the gateway
type TranscriptionClient interface {
	Transcribe(ctx context.Context, audioBase64 string) (string, error)
}

// AudioSource opens capture streams on an input device
type AudioSource interface {
	// Open requests access to the device. A denied or missing device must be
	// reported as an error wrapping ErrMicrophoneUnavailable.
	Open(ctx context.Context, constraints AudioConstraints) (CaptureStream, error)
}

// CaptureStream is one acquired input. Fragments are delivered in capture
// order and the channel is closed once Stop has flushed the last fragment.
type CaptureStream interface {
	Fragments() <-chan AudioFragment
	Pause() error
	Resume() error

	// Stop halts capture; it does not release the device
	Stop() error

	// Close releases the device tracks
	Close() error
}

// AudioPackager assembles captured fragments into a single uploadable payload
type AudioPackager interface {
	Package(fragments []AudioFragment, constraints AudioConstraints) (*AudioPayload, error)
}

// MetricsCollector defines interface for collecting gateway metrics
type MetricsCollector interface {
	RecordTranscription(ctx context.Context, metrics TranscriptionMetrics) error
}

// RateLimiter defines interface for rate limiting gateway clients
type RateLimiter interface {
	// IsAllowed checks if request is within rate limit
	IsAllowed(ctx context.Context, clientKey string) bool

	// RecordRequest records a request for rate limiting
	RecordRequest(ctx context.Context, clientKey string) error
}
