package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gopkg.in/validator.v2"
)

// Recorder drives one capture and transcription cycle at a time for a single subject.
//
//	Idle -> Recording -> {Paused <-> Recording} -> Stopped -> Transcribing -> Idle
type Recorder struct {
	subjectID   string
	source      AudioSource
	packager    AudioPackager
	client      TranscriptionClient
	identities  IdentityProvider
	store       SessionStore
	constraints AudioConstraints
	onComplete  func(text string)
	logger      *slog.Logger

	mu            sync.Mutex
	state         CaptureState
	opening       bool
	session       *CaptureSession
	collectorDone chan struct{}
	transcript    string
	errorMessage  string
}

type RecorderConfig struct {
	SubjectID  string              `validate:"nonzero"`
	Source     AudioSource         `validate:"nonnil"`
	Packager   AudioPackager       `validate:"nonnil"`
	Client     TranscriptionClient `validate:"nonnil"`
	Identities IdentityProvider    `validate:"nonnil"`
	// Store is optional; without it nothing is persisted or recalled
	Store SessionStore `validate:"-"`
	// Constraints defaults to DefaultAudioConstraints when zero
	Constraints AudioConstraints
	// OnTranscriptionComplete is called with the surfaced transcript on mount and after success
	OnTranscriptionComplete func(text string)
	Logger                  *slog.Logger `validate:"nonnil"`
}

// NewRecorder creates an idle recorder
func NewRecorder(config RecorderConfig) (*Recorder, error) {
	if err := validator.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid recorder configuration: %w", err)
	}

	if err := ValidateSubjectID(config.SubjectID); err != nil {
		return nil, fmt.Errorf("invalid recorder configuration: %w", err)
	}

	constraints := config.Constraints
	if constraints == (AudioConstraints{}) {
		constraints = DefaultAudioConstraints()
	}
	if err := ValidateAudioConstraints(constraints); err != nil {
		return nil, fmt.Errorf("invalid recorder configuration: %w", err)
	}

	return &Recorder{
		subjectID:   config.SubjectID,
		source:      config.Source,
		packager:    config.Packager,
		client:      config.Client,
		identities:  config.Identities,
		store:       config.Store,
		constraints: constraints,
		onComplete:  config.OnTranscriptionComplete,
		logger:      config.Logger,
		state:       StateIdle,
	}, nil
}

// SubjectID returns the subject this recorder writes transcripts for
func (r *Recorder) SubjectID() string {
	return r.subjectID
}

// State returns the current capture state
func (r *Recorder) State() CaptureState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Transcript returns the currently displayed transcript
func (r *Recorder) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript
}

// ErrorMessage returns the user-visible error of the last failed action
func (r *Recorder) ErrorMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errorMessage
}

// FragmentCount returns how many fragments the current capture holds
func (r *Recorder) FragmentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return len(r.session.Fragments)
}

// Mount surfaces the stored transcript for the subject when an identity is
// present. Without an identity the displayed transcript is cleared.
func (r *Recorder) Mount(ctx context.Context) (string, error) {
	if r.identities.Current() == nil {
		r.mu.Lock()
		r.transcript = ""
		r.mu.Unlock()

		r.notify("")
		return "", nil
	}

	if r.store == nil {
		return r.Transcript(), nil
	}

	text, err := r.store.GetTranscript(ctx, r.subjectID)
	if err != nil {
		if errors.Is(err, ErrTranscriptNotFound) {
			return r.Transcript(), nil
		}
		return "", fmt.Errorf("failed to load transcript: %w", err)
	}

	r.mu.Lock()
	r.transcript = text
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "Loaded saved transcript",
		"subject_id", r.subjectID,
		"text_length", len(text),
	)

	r.notify(text)
	return text, nil
}

// Start opens the audio source and begins a new capture. It never opens a
// second stream while a capture exists.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle || r.opening {
		r.mu.Unlock()
		return ErrCaptureInProgress
	}
	r.opening = true
	r.mu.Unlock()

	stream, err := r.source.Open(ctx, r.constraints)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.opening = false

	if err != nil {
		r.errorMessage = MessageMicrophoneError
		r.logger.ErrorContext(ctx, "Failed to open audio source",
			"subject_id", r.subjectID,
			"error", err.Error(),
		)
		if !errors.Is(err, ErrMicrophoneUnavailable) {
			err = fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
		}
		return NewServiceError(CodeCaptureFailed, "failed to start capture", err)
	}

	done := make(chan struct{})
	r.session = &CaptureSession{
		Stream:    stream,
		StartedAt: time.Now(),
	}
	r.collectorDone = done
	r.state = StateRecording
	r.errorMessage = ""

	go r.collect(r.session, done)

	r.logger.InfoContext(ctx, "Recording started", "subject_id", r.subjectID)
	return nil
}

// Pause suspends capture. It is a no-op unless recording.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return nil
	}

	if err := r.session.Stream.Pause(); err != nil {
		return NewServiceError(CodeCaptureFailed, "failed to pause capture", err)
	}
	r.state = StatePaused
	return nil
}

// Resume continues a paused capture. It is a no-op unless paused.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePaused {
		return nil
	}

	if err := r.session.Stream.Resume(); err != nil {
		return NewServiceError(CodeCaptureFailed, "failed to resume capture", err)
	}
	r.state = StateRecording
	return nil
}

// Toggle starts when idle, pauses when recording and resumes when paused
func (r *Recorder) Toggle(ctx context.Context) error {
	switch r.State() {
	case StateIdle:
		return r.Start(ctx)
	case StateRecording:
		return r.Pause()
	case StatePaused:
		return r.Resume()
	default:
		return ErrTranscriptionInFlight
	}
}

// Stop halts capture and transcribes everything captured so far. The stream
// is released and the recorder returns to idle on every path.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	switch r.state {
	case StateIdle:
		r.mu.Unlock()
		return "", ErrNotRecording
	case StateStopped, StateTranscribing:
		r.mu.Unlock()
		return "", ErrTranscriptionInFlight
	}
	session := r.session
	done := r.collectorDone
	r.state = StateStopped
	r.errorMessage = ""
	r.mu.Unlock()

	defer r.release(ctx, session)

	if err := session.Stream.Stop(); err != nil {
		return "", r.fail(ctx, NewServiceError(CodeCaptureFailed, "failed to stop capture", err))
	}

	select {
	case <-done:
	case <-ctx.Done():
		return "", r.fail(ctx, NewServiceError(CodeCaptureFailed, "capture did not drain", ctx.Err()))
	}

	r.mu.Lock()
	r.state = StateTranscribing
	fragments := make([]AudioFragment, len(session.Fragments))
	copy(fragments, session.Fragments)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Recording stopped",
		"subject_id", r.subjectID,
		"fragments", len(fragments),
		"duration", time.Since(session.StartedAt),
	)

	text, err := r.transcribe(ctx, fragments)
	if err != nil {
		return "", r.fail(ctx, err)
	}

	if r.identities.Current() != nil && r.store != nil {
		if err := r.store.SetTranscript(ctx, r.subjectID, text); err != nil {
			r.logger.WarnContext(ctx, "Failed to persist transcript",
				"subject_id", r.subjectID,
				"error", err.Error(),
			)
		}
	}

	r.mu.Lock()
	r.transcript = text
	r.mu.Unlock()

	r.notify(text)
	return text, nil
}

// Close discards an open capture and releases its stream without
// transcribing. It refuses while a transcription is in flight.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case StateIdle:
		r.mu.Unlock()
		return nil
	case StateStopped, StateTranscribing:
		r.mu.Unlock()
		return ErrTranscriptionInFlight
	}
	session := r.session
	done := r.collectorDone
	r.state = StateStopped
	r.mu.Unlock()

	defer r.release(ctx, session)

	if err := session.Stream.Stop(); err != nil {
		r.logger.WarnContext(ctx, "Failed to stop capture on close",
			"subject_id", r.subjectID,
			"error", err.Error(),
		)
		return nil
	}

	select {
	case <-done:
	case <-ctx.Done():
	}

	r.logger.InfoContext(ctx, "Recording discarded", "subject_id", r.subjectID)
	return nil
}

func (r *Recorder) transcribe(ctx context.Context, fragments []AudioFragment) (string, error) {
	if len(fragments) == 0 {
		return "", NewServiceError(CodeTranscriptionFailed, "nothing to transcribe", ErrEmptyCapture)
	}

	payload, err := r.packager.Package(fragments, r.constraints)
	if err != nil {
		return "", NewServiceError(CodePackagingFailed, "failed to package audio", err)
	}

	encoded := base64.StdEncoding.EncodeToString(payload.Data)

	text, err := r.client.Transcribe(ctx, encoded)
	if err != nil {
		return "", NewServiceError(CodeTranscriptionFailed, "gateway request failed", err)
	}

	if strings.TrimSpace(text) == "" {
		return "", NewServiceError(CodeTranscriptionFailed, "empty transcript", ErrNoSpeechDetected)
	}

	return text, nil
}

// collect appends fragments of one capture session in arrival order
func (r *Recorder) collect(session *CaptureSession, done chan struct{}) {
	defer close(done)

	for fragment := range session.Stream.Fragments() {
		if len(fragment.Data) == 0 {
			continue
		}

		r.mu.Lock()
		session.Fragments = append(session.Fragments, fragment)
		r.mu.Unlock()
	}
}

func (r *Recorder) fail(ctx context.Context, err error) error {
	r.mu.Lock()
	r.errorMessage = MessageTranscriptionError
	r.mu.Unlock()

	r.logger.ErrorContext(ctx, "Error during transcription",
		"subject_id", r.subjectID,
		"error", err.Error(),
	)
	return err
}

func (r *Recorder) release(ctx context.Context, session *CaptureSession) {
	if err := session.Stream.Close(); err != nil {
		r.logger.WarnContext(ctx, "Failed to release audio stream",
			"subject_id", r.subjectID,
			"error", err.Error(),
		)
	}

	r.mu.Lock()
	r.session = nil
	r.collectorDone = nil
	r.state = StateIdle
	r.mu.Unlock()
}

func (r *Recorder) notify(text string) {
	if r.onComplete != nil {
		r.onComplete(text)
	}
}
