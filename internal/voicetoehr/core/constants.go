package core

import "time"

// Local storage keys
const (
	IdentityStorageKey         = "doctor"
	TranscriptStorageKeyPrefix = "transcription_"
)

// TranscriptStorageKey returns the storage key for a subject's transcript
func TranscriptStorageKey(subjectID string) string {
	return TranscriptStorageKeyPrefix + subjectID
}

// Placeholder credential. This is a capability gate stub and must be
// replaced by a real credential service before any clinical use.
const (
	PlaceholderUsername     = "admin"
	PlaceholderPassword     = "vtehr"
	PlaceholderIdentityName = "Dr. Ilponen"
)

// Capture defaults
const (
	DefaultChannels         = 1
	DefaultSampleRate       = 16000
	DefaultSampleSize       = 16
	DefaultFragmentInterval = time.Second
)

// Audio content types
const (
	ContentTypeWAV = "audio/wav"
)

// Subject id limits
const (
	MaxSubjectIDLength = 128
)

// User facing messages
const (
	MessageCredentialMissing   = "Deepgram API key not configured"
	MessageAudioMissing        = "No audio data provided"
	MessageInvalidAudio        = "Invalid audio data"
	MessageInvalidRequestBody  = "Invalid request body"
	MessageNoTranscription     = "No transcription results"
	MessageProcessingFailed    = "Failed to process audio"
	MessageTranscriptionFailed = "Failed to transcribe audio"
	MessageRateLimitExceeded   = "Rate limit exceeded. Please try again later."

	MessageMicrophoneError    = "Error accessing microphone. Please make sure you have granted microphone permissions."
	MessageTranscriptionError = "Error during transcription. Please try again."
)

// Service error codes
const (
	CodeCaptureFailed       = "capture_failed"
	CodePackagingFailed     = "packaging_failed"
	CodeTranscriptionFailed = "transcription_failed"
	CodeStorageFailed       = "storage_failed"
)
