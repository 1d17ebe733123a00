package wavpackager

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

const wavFormatPCM = 1

var ErrOddSampleBytes = errors.New("fragment data is not a whole number of 16-bit samples")

// Packager wraps captured PCM16 fragments into a single WAV payload
type Packager struct{}

func NewPackager() *Packager {
	return &Packager{}
}

// Package concatenates fragments in order and encodes them as one WAV file
func (p *Packager) Package(fragments []core.AudioFragment, constraints core.AudioConstraints) (*core.AudioPayload, error) {
	if err := core.ValidateAudioConstraints(constraints); err != nil {
		return nil, err
	}

	total := 0
	for _, fragment := range fragments {
		total += len(fragment.Data)
	}
	if total%2 != 0 {
		return nil, ErrOddSampleBytes
	}

	// a sample may straddle two fragments
	pcm := make([]byte, 0, total)
	for _, fragment := range fragments {
		pcm = append(pcm, fragment.Data...)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: constraints.Channels,
			SampleRate:  constraints.SampleRate,
		},
		Data:           make([]int, 0, total/2),
		SourceBitDepth: constraints.SampleSize,
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		buf.Data = append(buf.Data, int(int16(binary.LittleEndian.Uint16(pcm[i:]))))
	}

	out := &seekBuffer{}
	enc := wav.NewEncoder(out, constraints.SampleRate, constraints.SampleSize, constraints.Channels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}

	return &core.AudioPayload{
		Data:        out.Bytes(),
		ContentType: core.ContentTypeWAV,
	}, nil
}
