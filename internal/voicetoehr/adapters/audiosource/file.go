package audiosource

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/wav"
	"gopkg.in/validator.v2"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

const chunkDuration = 100 * time.Millisecond

// FileSource replays a PCM16 WAV file as if it were a microphone
type FileSource struct {
	path     string
	realtime bool
	logger   *slog.Logger
}

type FileSourceConfig struct {
	Path string `validate:"nonzero"`
	// Realtime paces chunks at the speed of the recording
	Realtime bool
	Logger   *slog.Logger `validate:"nonnil"`
}

func NewFileSource(cfg FileSourceConfig) (*FileSource, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid file source configuration: %w", err)
	}

	return &FileSource{
		path:     cfg.Path,
		realtime: cfg.Realtime,
		logger:   cfg.Logger,
	}, nil
}

// Open decodes the whole file up front. A missing file or one whose format
// differs from the constraints is reported as an unavailable device.
func (f *FileSource) Open(ctx context.Context, constraints core.AudioConstraints) (core.CaptureStream, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMicrophoneUnavailable, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid wav file", core.ErrMicrophoneUnavailable, f.path)
	}

	if int(decoder.SampleRate) != constraints.SampleRate ||
		int(decoder.NumChans) != constraints.Channels ||
		int(decoder.BitDepth) != constraints.SampleSize {
		return nil, fmt.Errorf("%w: %s is %d Hz, %d channel(s), %d-bit; want %d Hz, %d channel(s), %d-bit",
			core.ErrMicrophoneUnavailable, f.path,
			decoder.SampleRate, decoder.NumChans, decoder.BitDepth,
			constraints.SampleRate, constraints.Channels, constraints.SampleSize)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", core.ErrMicrophoneUnavailable, f.path, err)
	}

	pcm := make([]byte, 2*len(buf.Data))
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(sample)))
	}

	f.logger.InfoContext(ctx, "Replaying audio file",
		"path", f.path,
		"samples", len(buf.Data),
	)

	frameBytes := constraints.Channels * 2
	chunkBytes := int(int64(constraints.SampleRate*frameBytes) * int64(chunkDuration) / int64(time.Second))
	chunkBytes -= chunkBytes % frameBytes
	if chunkBytes < frameBytes {
		chunkBytes = frameBytes
	}

	offset := 0
	read := func() ([]byte, error) {
		if offset >= len(pcm) {
			return nil, io.EOF
		}
		end := offset + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		chunk := pcm[offset:end]
		offset = end

		if f.realtime {
			time.Sleep(chunkDuration)
		}
		return chunk, nil
	}

	return NewStream(StreamConfig{
		Read:        read,
		Constraints: constraints,
		Logger:      f.logger,
	}), nil
}
