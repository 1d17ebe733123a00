package core

import (
	"time"
)

// Identity is the display data of the logged-in clinician
type Identity struct {
	Name string `json:"name"`
}

// TranscriptRecord is the persisted transcript of a single subject (patient)
type TranscriptRecord struct {
	SubjectID string `json:"subject_id"`
	Text      string `json:"text"`
}

// CaptureState is the lifecycle state of a Recorder
type CaptureState int

const (
	StateIdle CaptureState = iota
	StateRecording
	StatePaused
	StateStopped
	StateTranscribing
)

func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateTranscribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// AudioConstraints describes the capture format requested from an audio source
type AudioConstraints struct {
	Channels         int           `json:"channels"`
	SampleRate       int           `json:"sample_rate"`
	SampleSize       int           `json:"sample_size"`
	EchoCancellation bool          `json:"echo_cancellation"`
	NoiseSuppression bool          `json:"noise_suppression"`
	FragmentInterval time.Duration `json:"fragment_interval"`
}

// DefaultAudioConstraints returns mono 16 kHz 16-bit capture with
// echo cancellation and noise suppression enabled.
func DefaultAudioConstraints() AudioConstraints {
	return AudioConstraints{
		Channels:         DefaultChannels,
		SampleRate:       DefaultSampleRate,
		SampleSize:       DefaultSampleSize,
		EchoCancellation: true,
		NoiseSuppression: true,
		FragmentInterval: DefaultFragmentInterval,
	}
}

// AudioFragment is a chunk of little-endian PCM samples delivered by a capture stream
type AudioFragment struct {
	Data       []byte
	CapturedAt time.Time
}

// CaptureSession is the in-progress recording owned by a Recorder
type CaptureSession struct {
	Stream    CaptureStream
	Fragments []AudioFragment
	StartedAt time.Time
}

// AudioPayload is the packaged form of a capture session ready for upload
type AudioPayload struct {
	Data        []byte
	ContentType string
}

// TranscribeInput is what the gateway accepts per call
type TranscribeInput struct {
	Audio     string `json:"audio"`
	RequestID string `json:"-"`
}

// TranscriptionResult is what the gateway returns on success
type TranscriptionResult struct {
	Text string `json:"text"`
}

// RecognitionResult is the normalized response of a speech recognizer
type RecognitionResult struct {
	// Transcript is the first alternative of the first channel, empty when the
	// upstream response carried no alternatives.
	Transcript string
	Confidence float64
	Duration   float64
}

// TranscriptionMetrics is a single gateway call outcome
type TranscriptionMetrics struct {
	RequestID     string        `json:"request_id"`
	AudioBytes    int           `json:"audio_bytes"`
	ExecutionTime time.Duration `json:"execution_time"`
	Success       bool          `json:"success"`
	ErrorType     string        `json:"error_type,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// TranscriptionStats summarizes recorded transcriptions over a window
type TranscriptionStats struct {
	Total           int64            `json:"total"`
	Succeeded       int64            `json:"succeeded"`
	AvgExecutionMs  float64          `json:"avg_execution_ms"`
	TotalAudioBytes int64            `json:"total_audio_bytes"`
	ErrorsByType    map[string]int64 `json:"errors_by_type"`
}
