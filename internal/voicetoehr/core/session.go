package core

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/validator.v2"
)

// SessionService holds the single logged-in identity
type SessionService struct {
	store  SessionStore
	logger *slog.Logger

	mu       sync.RWMutex
	identity *Identity
}

type SessionServiceConfig struct {
	// Store is nil in contexts without a local storage facility; the
	// service then keeps the identity in memory only and never restores.
	Store  SessionStore `validate:"-"`
	Logger *slog.Logger `validate:"nonnil"`
}

// NewSessionService creates a session holder with no identity
func NewSessionService(config SessionServiceConfig) (*SessionService, error) {
	if err := validator.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid session service configuration: %w", err)
	}

	return &SessionService{
		store:  config.Store,
		logger: config.Logger,
	}, nil
}

// Restore rehydrates the identity from the store if one was saved
func (s *SessionService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	identity, err := s.store.GetIdentity(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore identity: %w", err)
	}

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()

	if identity != nil {
		s.logger.InfoContext(ctx, "Identity restored", "name", identity.Name)
	}

	return nil
}

// Login checks the placeholder credential pair. A wrong pair returns false
// with no error; the error is reserved for storage failures.
func (s *SessionService) Login(ctx context.Context, username, password string) (bool, error) {
	if !placeholderCredentialMatch(username, password) {
		s.logger.WarnContext(ctx, "Login rejected", "username", username)
		return false, nil
	}

	identity := Identity{Name: PlaceholderIdentityName}

	if s.store != nil {
		if err := s.store.SetIdentity(ctx, identity); err != nil {
			return false, fmt.Errorf("failed to persist identity: %w", err)
		}
	}

	s.mu.Lock()
	s.identity = &identity
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Login succeeded", "name", identity.Name)
	return true, nil
}

// Logout clears the identity and purges every stored transcript
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}

	if err := s.store.ClearIdentity(ctx); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}

	removed, err := s.store.ClearTranscripts(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge transcripts: %w", err)
	}

	s.logger.InfoContext(ctx, "Logged out", "transcripts_removed", removed)
	return nil
}

// Current returns a copy of the current identity or nil
func (s *SessionService) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}

func placeholderCredentialMatch(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(PlaceholderUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(PlaceholderPassword)) == 1
	return userOK && passOK
}
