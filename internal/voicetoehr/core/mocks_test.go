package core_test

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

func getTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn, // Reduce noise in tests
	}))
}

// MockSessionStore mocks core.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetIdentity(ctx context.Context) (*core.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.Identity), args.Error(1)
}

func (m *MockSessionStore) SetIdentity(ctx context.Context, identity core.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockSessionStore) ClearIdentity(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSessionStore) GetTranscript(ctx context.Context, subjectID string) (string, error) {
	args := m.Called(ctx, subjectID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) SetTranscript(ctx context.Context, subjectID, text string) error {
	args := m.Called(ctx, subjectID, text)
	return args.Error(0)
}

func (m *MockSessionStore) ClearTranscripts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockSpeechRecognizer mocks core.SpeechRecognizer
type MockSpeechRecognizer struct {
	mock.Mock
}

func (m *MockSpeechRecognizer) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSpeechRecognizer) Recognize(ctx context.Context, audio []byte, contentType string) (*core.RecognitionResult, error) {
	args := m.Called(ctx, audio, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.RecognitionResult), args.Error(1)
}

// MockMetricsCollector mocks core.MetricsCollector
type MockMetricsCollector struct {
	mock.Mock
}

func (m *MockMetricsCollector) RecordTranscription(ctx context.Context, metrics core.TranscriptionMetrics) error {
	args := m.Called(ctx, metrics)
	return args.Error(0)
}

// MockTranscriptionClient mocks core.TranscriptionClient
type MockTranscriptionClient struct {
	mock.Mock
}

func (m *MockTranscriptionClient) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	args := m.Called(ctx, audioBase64)
	return args.String(0), args.Error(1)
}

// MockAudioPackager mocks core.AudioPackager
type MockAudioPackager struct {
	mock.Mock
}

func (m *MockAudioPackager) Package(fragments []core.AudioFragment, constraints core.AudioConstraints) (*core.AudioPayload, error) {
	args := m.Called(fragments, constraints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.AudioPayload), args.Error(1)
}

// MockAudioSource mocks core.AudioSource
type MockAudioSource struct {
	mock.Mock
}

func (m *MockAudioSource) Open(ctx context.Context, constraints core.AudioConstraints) (core.CaptureStream, error) {
	args := m.Called(ctx, constraints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(core.CaptureStream), args.Error(1)
}

// fakeStream is a capture stream whose fragments are pushed by the test
type fakeStream struct {
	fragments chan core.AudioFragment

	mu       sync.Mutex
	paused   bool
	stopped  bool
	closed   bool
	stopErr  error
	pauseErr error
}

func newFakeStream() *fakeStream {
	return &fakeStream{fragments: make(chan core.AudioFragment, 16)}
}

func (s *fakeStream) push(data []byte) {
	s.fragments <- core.AudioFragment{Data: data}
}

func (s *fakeStream) Fragments() <-chan core.AudioFragment {
	return s.fragments
}

func (s *fakeStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseErr != nil {
		return s.pauseErr
	}
	s.paused = true
	return nil
}

func (s *fakeStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopErr != nil {
		return s.stopErr
	}
	if !s.stopped {
		s.stopped = true
		close(s.fragments)
	}
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// staticIdentity is an IdentityProvider with a settable identity
type staticIdentity struct {
	mu       sync.Mutex
	identity *core.Identity
}

func (s *staticIdentity) Current() *core.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *staticIdentity) set(identity *core.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}
