package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

type voiceToTextRequest struct {
	Audio string `json:"audio"`
}

// VoiceToTextHandler serves POST /api/voice-to-text
type VoiceToTextHandler struct {
	gateway core.Gateway
	logger  *slog.Logger
}

func NewVoiceToTextHandler(gateway core.Gateway, logger *slog.Logger) *VoiceToTextHandler {
	return &VoiceToTextHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// Handle checks the credential before reading the body, so a missing
// credential is a 500 whatever the request holds.
func (h *VoiceToTextHandler) Handle(c *gin.Context) {
	if err := h.gateway.CheckConfigured(); err != nil {
		h.writeError(c, err)
		return
	}

	var req voiceToTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(c, "Invalid voice-to-text request body",
			"request_id", c.GetString(RequestIDKey),
			"error", err.Error(),
		)
		c.JSON(http.StatusBadRequest, NewErrorResponse(core.MessageInvalidRequestBody))
		return
	}

	result, err := h.gateway.Transcribe(c, core.TranscribeInput{
		Audio:     req.Audio,
		RequestID: c.GetString(RequestIDKey),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TranscriptionResponse{Text: result.Text})
}

func (h *VoiceToTextHandler) writeError(c *gin.Context, err error) {
	var upstreamErr *core.UpstreamError

	switch {
	case errors.Is(err, core.ErrCredentialMissing):
		c.JSON(http.StatusInternalServerError, NewErrorResponse(core.MessageCredentialMissing))
	case errors.Is(err, core.ErrAudioMissing):
		c.JSON(http.StatusBadRequest, NewErrorResponse(core.MessageAudioMissing))
	case errors.Is(err, core.ErrInvalidAudio):
		c.JSON(http.StatusBadRequest, NewErrorResponse(core.MessageInvalidAudio))
	case errors.Is(err, core.ErrNoTranscription):
		c.JSON(http.StatusBadRequest, NewErrorResponse(core.MessageNoTranscription))
	case errors.As(err, &upstreamErr):
		details := upstreamErr.Message
		if details == "" {
			details = core.MessageTranscriptionFailed
		}
		c.JSON(http.StatusInternalServerError, NewErrorDetailsResponse(core.MessageProcessingFailed, details))
	default:
		h.logger.ErrorContext(c, "Error processing audio",
			"request_id", c.GetString(RequestIDKey),
			"error", err.Error(),
		)
		c.JSON(http.StatusInternalServerError, NewErrorDetailsResponse(core.MessageProcessingFailed, err.Error()))
	}
}
