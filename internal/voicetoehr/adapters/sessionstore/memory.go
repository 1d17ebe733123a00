package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// MemoryStore is a process-scoped key/value store laid out like browser
// local storage: the identity under "doctor", transcripts under
// "transcription_<subjectId>".
type MemoryStore struct {
	items  map[string]string
	mutex  sync.RWMutex
	logger *slog.Logger
}

// NewMemoryStore creates a new empty memory store
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]string),
		logger: logger,
	}
}

// Get returns the raw value stored under key
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.items[key]
	return value, exists
}

// Set stores a raw value under key
func (s *MemoryStore) Set(key, value string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.items[key] = value
}

// Keys returns every stored key in sorted order
func (s *MemoryStore) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// GetIdentity returns the stored identity or nil when none is stored
func (s *MemoryStore) GetIdentity(ctx context.Context) (*core.Identity, error) {
	raw, exists := s.Get(core.IdentityStorageKey)
	if !exists {
		return nil, nil
	}

	var identity core.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("failed to decode stored identity: %w", err)
	}

	s.logger.DebugContext(ctx, "Loaded identity", "name", identity.Name)
	return &identity, nil
}

// SetIdentity stores the identity as JSON
func (s *MemoryStore) SetIdentity(ctx context.Context, identity core.Identity) error {
	if err := core.ValidateIdentity(identity); err != nil {
		return err
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	s.Set(core.IdentityStorageKey, string(raw))

	s.logger.DebugContext(ctx, "Identity saved", "name", identity.Name)
	return nil
}

// ClearIdentity removes the stored identity
func (s *MemoryStore) ClearIdentity(ctx context.Context) error {
	s.mutex.Lock()
	delete(s.items, core.IdentityStorageKey)
	s.mutex.Unlock()

	s.logger.DebugContext(ctx, "Identity cleared")
	return nil
}

// GetTranscript returns the transcript stored for subjectID
func (s *MemoryStore) GetTranscript(ctx context.Context, subjectID string) (string, error) {
	if err := core.ValidateSubjectID(subjectID); err != nil {
		return "", err
	}

	text, exists := s.Get(core.TranscriptStorageKey(subjectID))
	if !exists {
		return "", core.ErrTranscriptNotFound
	}

	return text, nil
}

// SetTranscript overwrites the transcript for subjectID
func (s *MemoryStore) SetTranscript(ctx context.Context, subjectID, text string) error {
	if err := core.ValidateSubjectID(subjectID); err != nil {
		return err
	}

	s.Set(core.TranscriptStorageKey(subjectID), text)

	s.logger.DebugContext(ctx, "Transcript saved",
		"subject_id", subjectID,
		"text_length", len(text),
	)
	return nil
}

// ClearTranscripts removes every key carrying the transcript prefix
func (s *MemoryStore) ClearTranscripts(ctx context.Context) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for key := range s.items {
		if strings.HasPrefix(key, core.TranscriptStorageKeyPrefix) {
			delete(s.items, key)
			removed++
		}
	}

	s.logger.InfoContext(ctx, "Transcripts purged", "count", removed)
	return removed, nil
}
