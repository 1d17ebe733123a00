package speechrecognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gopkg.in/validator.v2"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

const (
	DefaultDeepgramBaseURL = "https://api.deepgram.com"
	defaultTimeout         = 30 * time.Second
	listenPath             = "/v1/listen"
	fallbackErrorMessage   = "Failed to transcribe audio"
)

// DeepgramRecognizer sends prerecorded audio to the Deepgram listen endpoint
type DeepgramRecognizer struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

type DeepgramConfig struct {
	BaseURL string `validate:"nonzero"`
	// APIKey may be empty; IsConfigured then reports false
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
	Logger   *slog.Logger `validate:"nonnil"`
}

func NewDeepgramRecognizer(cfg DeepgramConfig) (*DeepgramRecognizer, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid deepgram configuration: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &DeepgramRecognizer{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// IsConfigured reports whether an API key is available
func (d *DeepgramRecognizer) IsConfigured() bool {
	return d.apiKey != ""
}

type listenResponse struct {
	Metadata struct {
		RequestID string  `json:"request_id"`
		Duration  float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

type errorResponse struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
	Message string `json:"message"`
}

// Recognize posts the raw audio and returns the first alternative of the
// first channel. A response without one yields core.ErrNoTranscription.
func (d *DeepgramRecognizer) Recognize(ctx context.Context, audio []byte, contentType string) (*core.RecognitionResult, error) {
	if !d.IsConfigured() {
		return nil, core.ErrCredentialMissing
	}

	apiURL, err := d.listenURL()
	if err != nil {
		return nil, fmt.Errorf("failed to build listen URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType == "" {
		contentType = core.ContentTypeWAV
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", contentType)

	startTime := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to reach Deepgram",
			"error", err.Error(),
		)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstreamErr := &core.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body),
		}
		d.logger.ErrorContext(ctx, "Deepgram returned non-2xx status",
			"status_code", resp.StatusCode,
			"message", upstreamErr.Message,
		)
		return nil, upstreamErr
	}

	var parsed listenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return nil, core.ErrNoTranscription
	}

	alternative := parsed.Results.Channels[0].Alternatives[0]

	d.logger.DebugContext(ctx, "Deepgram transcription received",
		"request_id", parsed.Metadata.RequestID,
		"confidence", alternative.Confidence,
		"latency", time.Since(startTime),
	)

	return &core.RecognitionResult{
		Transcript: alternative.Transcript,
		Confidence: alternative.Confidence,
		Duration:   parsed.Metadata.Duration,
	}, nil
}

func (d *DeepgramRecognizer) listenURL() (string, error) {
	u, err := url.Parse(d.baseURL + listenPath)
	if err != nil {
		return "", err
	}

	query := u.Query()
	if d.model != "" {
		query.Set("model", d.model)
	}
	if d.language != "" {
		query.Set("language", d.language)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// upstreamMessage extracts the upstream's own error message, falling back
// to a generic one when the body carries none.
func upstreamMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallbackErrorMessage
	}

	switch {
	case parsed.Message != "":
		return parsed.Message
	case parsed.ErrMsg != "":
		return parsed.ErrMsg
	default:
		return fallbackErrorMessage
	}
}
