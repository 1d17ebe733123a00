package audiosource

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// ReadFunc blocks until the next chunk of little-endian PCM16 is available.
// It returns io.EOF once the device has nothing more to deliver.
type ReadFunc func() ([]byte, error)

// Stream turns a blocking PCM reader into a core.CaptureStream. Chunks are
// accumulated into fragments of one FragmentInterval each. Audio read while
// paused is discarded.
type Stream struct {
	read          ReadFunc
	release       func() error
	fragmentBytes int
	logger        *slog.Logger

	fragments chan core.AudioFragment
	stopCh    chan struct{}
	abortCh   chan struct{}
	done      chan struct{}

	mu       sync.Mutex
	paused   bool
	stopOnce sync.Once
	closed   bool
}

type StreamConfig struct {
	Read ReadFunc
	// Release frees the underlying device; called once from Close
	Release     func() error
	Constraints core.AudioConstraints
	Logger      *slog.Logger
}

// NewStream starts reading immediately
func NewStream(cfg StreamConfig) *Stream {
	s := &Stream{
		read:          cfg.Read,
		release:       cfg.Release,
		fragmentBytes: FragmentBytes(cfg.Constraints),
		logger:        cfg.Logger,
		fragments:     make(chan core.AudioFragment, 8),
		stopCh:        make(chan struct{}),
		abortCh:       make(chan struct{}),
		done:          make(chan struct{}),
	}

	go s.run()
	return s
}

// FragmentBytes is the byte size of one fragment interval of audio. Zero
// means every chunk becomes its own fragment.
func FragmentBytes(c core.AudioConstraints) int {
	if c.FragmentInterval <= 0 {
		return 0
	}
	bytesPerSecond := c.SampleRate * c.Channels * (c.SampleSize / 8)
	return int(int64(bytesPerSecond) * int64(c.FragmentInterval) / int64(time.Second))
}

func (s *Stream) Fragments() <-chan core.AudioFragment {
	return s.fragments
}

func (s *Stream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *Stream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

// Stop ends capture. The pending partial fragment is flushed before the
// fragment channel is closed.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

// Close stops capture if needed, waits for the reader to exit and releases the device
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	close(s.abortCh)
	<-s.done

	if s.release != nil {
		return s.release()
	}
	return nil
}

func (s *Stream) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Stream) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Stream) run() {
	defer close(s.done)
	defer close(s.fragments)

	var pending []byte
	flush := func() {
		if len(pending) == 0 {
			return
		}
		fragment := core.AudioFragment{Data: pending, CapturedAt: time.Now()}
		pending = nil
		select {
		case s.fragments <- fragment:
		case <-s.abortCh:
		}
	}

	for !s.stopped() {
		chunk, err := s.read()
		if err != nil {
			if !errors.Is(err, io.EOF) && s.logger != nil {
				s.logger.Error("Audio read failed", "error", err.Error())
			}
			flush()
			select {
			case <-s.stopCh:
			case <-s.abortCh:
			}
			return
		}

		if s.isPaused() || s.stopped() {
			continue
		}

		pending = append(pending, chunk...)
		if len(pending) >= s.fragmentBytes {
			flush()
		}
	}

	flush()
}
