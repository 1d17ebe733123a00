// internal/voicetoehr/core/validators.go
package core

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateSubjectID validates a subject identifier used in storage keys
func ValidateSubjectID(subjectID string) error {
	if strings.TrimSpace(subjectID) == "" {
		return NewValidationError("subject_id", "subject ID cannot be empty")
	}

	if len(subjectID) > MaxSubjectIDLength {
		return NewValidationError("subject_id", fmt.Sprintf("subject ID exceeds maximum of %d characters", MaxSubjectIDLength))
	}

	if !utf8.ValidString(subjectID) {
		return NewValidationError("subject_id", "subject ID contains invalid UTF-8 characters")
	}

	for _, r := range subjectID {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return NewValidationError("subject_id", "subject ID cannot contain whitespace or control characters")
		}
	}

	return nil
}

// ValidateIdentity validates an identity before it is stored
func ValidateIdentity(identity Identity) error {
	if strings.TrimSpace(identity.Name) == "" {
		return NewValidationError("name", "identity name cannot be empty")
	}
	return nil
}

// ValidateAudioConstraints validates capture constraints
func ValidateAudioConstraints(c AudioConstraints) error {
	if c.Channels <= 0 {
		return NewValidationError("channels", "channel count must be positive")
	}

	if c.SampleRate <= 0 {
		return NewValidationError("sample_rate", "sample rate must be positive")
	}

	if c.SampleSize != 16 {
		return NewValidationError("sample_size", fmt.Sprintf("unsupported sample size: %d (only 16-bit is supported)", c.SampleSize))
	}

	if c.FragmentInterval < 0 {
		return NewValidationError("fragment_interval", "fragment interval cannot be negative")
	}

	return nil
}

// DecodeAudio decodes a base64 audio payload. A data URL prefix
// ("data:audio/wav;base64,") is tolerated and stripped.
func DecodeAudio(audio string) ([]byte, error) {
	audio = strings.TrimSpace(audio)
	if audio == "" {
		return nil, ErrAudioMissing
	}

	if strings.HasPrefix(audio, "data:") {
		if idx := strings.Index(audio, ","); idx != -1 {
			audio = audio[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}

	if len(data) == 0 {
		return nil, ErrAudioMissing
	}

	return data, nil
}
