package speechrecognizer

import (
	"context"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// StaticRecognizer returns a fixed transcript for any audio. Used to run the
// whole flow offline.
type StaticRecognizer struct {
	transcript string
}

func NewStaticRecognizer(transcript string) *StaticRecognizer {
	return &StaticRecognizer{transcript: transcript}
}

func (s *StaticRecognizer) IsConfigured() bool {
	return true
}

// Recognize ignores the audio content
func (s *StaticRecognizer) Recognize(ctx context.Context, audio []byte, contentType string) (*core.RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &core.RecognitionResult{Transcript: s.transcript, Confidence: 1}, nil
}
