package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

// SQLiteStore keeps the local storage key/value layout in a SQLite file so
// the identity survives restarts of the recorder.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the store at dbPath
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.InfoContext(context.Background(), "Session store initialized",
		"db_path", dbPath,
	)

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the raw value stored under key
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a raw value under key, replacing any previous value
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO local_storage (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		s.logger.ErrorContext(ctx, "Failed to set key",
			"key", key,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Remove deletes key if present
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}

// Keys returns every stored key in sorted order
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			s.logger.WarnContext(ctx, "Failed to scan key row",
				"error", err.Error(),
			)
			continue
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key rows: %w", err)
	}

	return keys, nil
}

// GetIdentity returns the stored identity or nil when none is stored
func (s *SQLiteStore) GetIdentity(ctx context.Context) (*core.Identity, error) {
	raw, exists, err := s.Get(ctx, core.IdentityStorageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var identity core.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("failed to decode stored identity: %w", err)
	}

	return &identity, nil
}

// SetIdentity stores the identity as JSON
func (s *SQLiteStore) SetIdentity(ctx context.Context, identity core.Identity) error {
	if err := core.ValidateIdentity(identity); err != nil {
		return err
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := s.Set(ctx, core.IdentityStorageKey, string(raw)); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "Identity saved", "name", identity.Name)
	return nil
}

// ClearIdentity removes the stored identity
func (s *SQLiteStore) ClearIdentity(ctx context.Context) error {
	return s.Remove(ctx, core.IdentityStorageKey)
}

// GetTranscript returns the transcript stored for subjectID
func (s *SQLiteStore) GetTranscript(ctx context.Context, subjectID string) (string, error) {
	if err := core.ValidateSubjectID(subjectID); err != nil {
		return "", err
	}

	text, exists, err := s.Get(ctx, core.TranscriptStorageKey(subjectID))
	if err != nil {
		return "", err
	}
	if !exists {
		return "", core.ErrTranscriptNotFound
	}

	return text, nil
}

// SetTranscript overwrites the transcript for subjectID
func (s *SQLiteStore) SetTranscript(ctx context.Context, subjectID, text string) error {
	if err := core.ValidateSubjectID(subjectID); err != nil {
		return err
	}

	if err := s.Set(ctx, core.TranscriptStorageKey(subjectID), text); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "Transcript saved",
		"subject_id", subjectID,
		"text_length", len(text),
	)
	return nil
}

// ClearTranscripts scans every key and removes those carrying the transcript prefix
func (s *SQLiteStore) ClearTranscripts(ctx context.Context) (int, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, core.TranscriptStorageKeyPrefix) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
			return 0, fmt.Errorf("failed to remove key %s: %w", key, err)
		}
		removed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}

	s.logger.InfoContext(ctx, "Transcripts purged", "count", removed)
	return removed, nil
}

// initSchema initializes the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS local_storage (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}
