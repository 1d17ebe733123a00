package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gopkg.in/validator.v2"
)

const (
	transcribePath = "/api/voice-to-text"
	defaultTimeout = 60 * time.Second
)

// Client posts base64 audio to the transcription gateway
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type ClientConfig struct {
	BaseURL string `validate:"nonzero"`
	Timeout time.Duration
	Logger  *slog.Logger `validate:"nonnil"`
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

type transcribeRequest struct {
	Audio string `json:"audio"`
}

type transcribeResponse struct {
	Text    string `json:"text"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// GatewayError is a non-200 response from the gateway
type GatewayError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *GatewayError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("gateway error (status %d): %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Message)
}

// Transcribe sends one audio payload and returns the recognized text
func (c *Client) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	payload, err := json.Marshal(transcribeRequest{Audio: audioBase64})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to reach transcription gateway",
			"error", err.Error(),
		)
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed transcribeResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		gatewayErr := &GatewayError{StatusCode: resp.StatusCode, Message: parsed.Error, Details: parsed.Details}
		if decodeErr != nil || gatewayErr.Message == "" {
			gatewayErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.ErrorContext(ctx, "Transcription gateway returned an error",
			"status_code", resp.StatusCode,
			"message", gatewayErr.Message,
		)
		return "", gatewayErr
	}

	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	return parsed.Text, nil
}
