package microphone

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
	"gopkg.in/validator.v2"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/audiosource"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// framesPerBuffer is 100ms at 16 kHz
const framesPerBuffer = 1600

// Source captures from the default input device through PortAudio
type Source struct {
	logger *slog.Logger

	mu   sync.Mutex
	open bool
}

type SourceConfig struct {
	Logger *slog.Logger `validate:"nonnil"`
}

func NewSource(cfg SourceConfig) (*Source, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid microphone configuration: %w", err)
	}

	return &Source{logger: cfg.Logger}, nil
}

// Open initializes PortAudio and starts the default input stream. Every
// failure is reported as core.ErrMicrophoneUnavailable.
func (s *Source) Open(ctx context.Context, constraints core.AudioConstraints) (core.CaptureStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil, fmt.Errorf("%w: device already in use", core.ErrMicrophoneUnavailable)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: portaudio init failed: %v", core.ErrMicrophoneUnavailable, err)
	}

	in := make([]int16, framesPerBuffer*constraints.Channels)
	stream, err := portaudio.OpenDefaultStream(constraints.Channels, 0, float64(constraints.SampleRate), framesPerBuffer, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: open stream failed: %v", core.ErrMicrophoneUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: start stream failed: %v", core.ErrMicrophoneUnavailable, err)
	}

	if constraints.EchoCancellation || constraints.NoiseSuppression {
		s.logger.DebugContext(ctx, "Echo cancellation and noise suppression are left to the input device")
	}

	s.open = true
	s.logger.InfoContext(ctx, "Microphone opened",
		"sample_rate", constraints.SampleRate,
		"channels", constraints.Channels,
	)

	read := func() ([]byte, error) {
		if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
		chunk := make([]byte, 2*len(in))
		for i, sample := range in {
			binary.LittleEndian.PutUint16(chunk[2*i:], uint16(sample))
		}
		return chunk, nil
	}

	release := func() error {
		defer func() {
			s.mu.Lock()
			s.open = false
			s.mu.Unlock()
		}()

		stopErr := stream.Stop()
		closeErr := stream.Close()
		termErr := portaudio.Terminate()
		return errors.Join(stopErr, closeErr, termErr)
	}

	return audiosource.NewStream(audiosource.StreamConfig{
		Read:        read,
		Release:     release,
		Constraints: constraints,
		Logger:      s.logger,
	}), nil
}
