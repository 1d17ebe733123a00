package rest_test

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/metricscollector"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/ratelimiter"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/speechrecognizer"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/presentation/rest"
)

func getTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
}

type serverOptions struct {
	recognizer   core.SpeechRecognizer
	rateLimitRPM int
}

func setupServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := getTestLogger()
	registry := prometheus.NewRegistry()

	promCollector, err := metricscollector.NewPrometheusCollector(registry)
	require.NoError(t, err)

	gateway, err := core.NewGatewayService(core.GatewayServiceConfig{
		Recognizer:       opts.recognizer,
		MetricsCollector: promCollector,
		Logger:           logger,
	})
	require.NoError(t, err)

	config := rest.ServerConfig{
		Gateway:        gateway,
		Logger:         logger,
		Port:           ":0",
		ReadTimeout:    rest.DefaultReadTimeout,
		WriteTimeout:   rest.DefaultWriteTimeout,
		Observer:       promCollector,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Version:        "test",
	}
	if opts.rateLimitRPM > 0 {
		limiter := ratelimiter.NewRateLimiter(opts.rateLimitRPM, logger)
		t.Cleanup(limiter.Close)
		config.RateLimiter = limiter
	}

	server, err := rest.NewServer(config)
	require.NoError(t, err)

	return &testServer{handler: server.Handler(), registry: registry}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func newUpstream(t *testing.T, status int, body string) *speechrecognizer.DeepgramRecognizer {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	recognizer, err := speechrecognizer.NewDeepgramRecognizer(speechrecognizer.DeepgramConfig{
		BaseURL: upstream.URL,
		APIKey:  "test-key",
		Logger:  getTestLogger(),
	})
	require.NoError(t, err)
	return recognizer
}

func newUnconfigured(t *testing.T) *speechrecognizer.DeepgramRecognizer {
	t.Helper()

	recognizer, err := speechrecognizer.NewDeepgramRecognizer(speechrecognizer.DeepgramConfig{
		BaseURL: speechrecognizer.DefaultDeepgramBaseURL,
		Logger:  getTestLogger(),
	})
	require.NoError(t, err)
	return recognizer
}

func audioBody(data string) string {
	return `{"audio":"` + base64.StdEncoding.EncodeToString([]byte(data)) + `"}`
}

func TestServer_VoiceToTextSuccess(t *testing.T) {
	ts := setupServer(t, serverOptions{
		recognizer: speechrecognizer.NewStaticRecognizer("patient reports mild headache"),
	})

	rec := ts.do(http.MethodPost, "/api/voice-to-text", audioBody("RIFF....WAVE"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"patient reports mild headache"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_VoiceToTextCredentialMissing(t *testing.T) {
	ts := setupServer(t, serverOptions{recognizer: newUnconfigured(t)})

	tests := []struct {
		name string
		body string
	}{
		{name: "valid audio", body: `{"audio":"QUJD"}`},
		{name: "invalid json", body: `{not json`},
		{name: "missing audio", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/voice-to-text", tt.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"Deepgram API key not configured"}`, rec.Body.String())
		})
	}
}

func TestServer_VoiceToTextBadRequests(t *testing.T) {
	ts := setupServer(t, serverOptions{
		recognizer: speechrecognizer.NewStaticRecognizer("unused"),
	})

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "missing audio field", body: `{}`, expected: `{"error":"No audio data provided"}`},
		{name: "empty audio", body: `{"audio":""}`, expected: `{"error":"No audio data provided"}`},
		{name: "invalid json", body: `{"audio":`, expected: `{"error":"Invalid request body"}`},
		{name: "invalid base64", body: `{"audio":"%%%not-base64%%%"}`, expected: `{"error":"Invalid audio data"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/voice-to-text", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tt.expected, rec.Body.String())
		})
	}
}

func TestServer_VoiceToTextNoTranscription(t *testing.T) {
	ts := setupServer(t, serverOptions{
		recognizer: newUpstream(t, http.StatusOK, `{"results":{"channels":[]}}`),
	})

	rec := ts.do(http.MethodPost, "/api/voice-to-text", audioBody("silence"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No transcription results"}`, rec.Body.String())
}

func TestServer_VoiceToTextWhitespaceTranscript(t *testing.T) {
	ts := setupServer(t, serverOptions{
		recognizer: newUpstream(t, http.StatusOK,
			`{"results":{"channels":[{"alternatives":[{"transcript":" ","confidence":0.1}]}]}}`),
	})

	rec := ts.do(http.MethodPost, "/api/voice-to-text", audioBody("silence"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":" "}`, rec.Body.String())
}

func TestServer_VoiceToTextUpstreamError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{
			name:     "upstream message",
			status:   http.StatusUnauthorized,
			body:     `{"err_code":"INVALID_AUTH","err_msg":"Invalid credentials."}`,
			expected: `{"error":"Failed to process audio","details":"Invalid credentials."}`,
		},
		{
			name:     "no upstream message",
			status:   http.StatusBadGateway,
			body:     `oops`,
			expected: `{"error":"Failed to process audio","details":"Failed to transcribe audio"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupServer(t, serverOptions{recognizer: newUpstream(t, tt.status, tt.body)})

			rec := ts.do(http.MethodPost, "/api/voice-to-text", audioBody("audio"))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, tt.expected, rec.Body.String())
		})
	}
}

func TestServer_RateLimit(t *testing.T) {
	// 2 rpm gives a burst of one request
	ts := setupServer(t, serverOptions{
		recognizer:   speechrecognizer.NewStaticRecognizer("note"),
		rateLimitRPM: 2,
	})

	first := ts.do(http.MethodPost, "/api/voice-to-text", audioBody("a"))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := ts.do(http.MethodPost, "/api/voice-to-text", audioBody("a"))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded. Please try again later."}`, second.Body.String())
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	// health is not limited
	health := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestServer_RateLimitRemainingHeader(t *testing.T) {
	// 10 rpm gives a burst of five requests
	ts := setupServer(t, serverOptions{
		recognizer:   speechrecognizer.NewStaticRecognizer("note"),
		rateLimitRPM: 10,
	})

	for _, expected := range []string{"4", "3", "2"} {
		rec := ts.do(http.MethodPost, "/api/voice-to-text", audioBody("a"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, expected, rec.Header().Get("X-RateLimit-Remaining"))
	}

	health := ts.do(http.MethodGet, "/health", "")
	assert.Empty(t, health.Header().Get("X-RateLimit-Remaining"))
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name       string
		recognizer func(t *testing.T) core.SpeechRecognizer
		status     string
		configured bool
	}{
		{
			name:       "configured",
			recognizer: func(t *testing.T) core.SpeechRecognizer { return speechrecognizer.NewStaticRecognizer("x") },
			status:     "healthy",
			configured: true,
		},
		{
			name:       "missing credential",
			recognizer: func(t *testing.T) core.SpeechRecognizer { return newUnconfigured(t) },
			status:     "degraded",
			configured: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupServer(t, serverOptions{recognizer: tt.recognizer(t)})

			rec := ts.do(http.MethodGet, "/health", "")
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
			assert.Equal(t, tt.configured, body["recognizer_configured"])
			assert.Equal(t, "test", body["version"])
			assert.NotContains(t, body, "transcriptions_24h")
		})
	}
}

func TestServer_Root(t *testing.T) {
	ts := setupServer(t, serverOptions{recognizer: speechrecognizer.NewStaticRecognizer("x")})

	rec := ts.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "It's running!")
}

func TestServer_Metrics(t *testing.T) {
	ts := setupServer(t, serverOptions{recognizer: speechrecognizer.NewStaticRecognizer("note")})

	ts.do(http.MethodPost, "/api/voice-to-text", audioBody("audio"))
	ts.do(http.MethodPost, "/api/voice-to-text", `{}`)

	rec := ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	text := rec.Body.String()
	assert.Contains(t, text, `voicetoehr_transcriptions_total{error_type="",success="true"} 1`)
	assert.Contains(t, text, `voicetoehr_transcriptions_total{error_type="audio_missing",success="false"} 1`)
	assert.Contains(t, text, `voicetoehr_http_requests_total{method="POST",path_pattern="/api/voice-to-text",status_code="200"} 1`)
	assert.Contains(t, text, `voicetoehr_http_requests_total{method="POST",path_pattern="/api/voice-to-text",status_code="400"} 1`)
}

func TestNewServer_InvalidConfig(t *testing.T) {
	_, err := rest.NewServer(rest.ServerConfig{Logger: getTestLogger()})
	assert.Error(t, err)
}
