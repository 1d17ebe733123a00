package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/validator.v2"
)

// GatewayService implements the Gateway interface
type GatewayService struct {
	recognizer       SpeechRecognizer
	metricsCollector MetricsCollector
	contentType      string
	logger           *slog.Logger
}

type GatewayServiceConfig struct {
	Recognizer SpeechRecognizer `validate:"nonnil"`
	// MetricsCollector is optional
	MetricsCollector MetricsCollector `validate:"-"`
	// ContentType is the declared type of the decoded audio, audio/wav when empty
	ContentType string
	Logger      *slog.Logger `validate:"nonnil"`
}

// NewGatewayService creates a new transcription gateway
func NewGatewayService(config GatewayServiceConfig) (*GatewayService, error) {
	if err := validator.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid gateway configuration: %w", err)
	}

	contentType := config.ContentType
	if contentType == "" {
		contentType = ContentTypeWAV
	}

	return &GatewayService{
		recognizer:       config.Recognizer,
		metricsCollector: config.MetricsCollector,
		contentType:      contentType,
		logger:           config.Logger,
	}, nil
}

// CheckConfigured reports ErrCredentialMissing when the recognizer has no credential
func (g *GatewayService) CheckConfigured() error {
	if !g.recognizer.IsConfigured() {
		return ErrCredentialMissing
	}
	return nil
}

// Transcribe relays one base64 payload to the recognizer and returns the text only
func (g *GatewayService) Transcribe(ctx context.Context, input TranscribeInput) (*TranscriptionResult, error) {
	startTime := time.Now()

	result, audioBytes, err := g.transcribe(ctx, input)

	g.recordMetrics(ctx, TranscriptionMetrics{
		RequestID:     input.RequestID,
		AudioBytes:    audioBytes,
		ExecutionTime: time.Since(startTime),
		Success:       err == nil,
		ErrorType:     ErrorType(err),
		Timestamp:     startTime,
	})

	if err != nil {
		g.logger.WarnContext(ctx, "Transcription failed",
			"request_id", input.RequestID,
			"audio_bytes", audioBytes,
			"error", err.Error(),
		)
		return nil, err
	}

	g.logger.InfoContext(ctx, "Transcription completed",
		"request_id", input.RequestID,
		"audio_bytes", audioBytes,
		"text_length", len(result.Text),
		"duration", time.Since(startTime),
	)

	return result, nil
}

func (g *GatewayService) transcribe(ctx context.Context, input TranscribeInput) (*TranscriptionResult, int, error) {
	if err := g.CheckConfigured(); err != nil {
		return nil, 0, err
	}

	audio, err := DecodeAudio(input.Audio)
	if err != nil {
		return nil, 0, err
	}

	recognition, err := g.recognizer.Recognize(ctx, audio, g.contentType)
	if err != nil {
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) || errors.Is(err, ErrNoTranscription) {
			return nil, len(audio), err
		}
		return nil, len(audio), &UpstreamError{Message: err.Error()}
	}

	if recognition == nil || recognition.Transcript == "" {
		return nil, len(audio), ErrNoTranscription
	}

	return &TranscriptionResult{Text: recognition.Transcript}, len(audio), nil
}

func (g *GatewayService) recordMetrics(ctx context.Context, metrics TranscriptionMetrics) {
	if g.metricsCollector == nil {
		return
	}

	if err := g.metricsCollector.RecordTranscription(ctx, metrics); err != nil {
		g.logger.WarnContext(ctx, "Failed to record transcription metrics",
			"request_id", metrics.RequestID,
			"error", err.Error(),
		)
	}
}
