package metricscollector

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

type SQLiteCollector struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteCollector creates a new metrics collector with SQLite
func NewSQLiteCollector(dbPath string, logger *slog.Logger) (*SQLiteCollector, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}

	collector := &SQLiteCollector{
		db:     db,
		logger: logger,
	}

	if err := collector.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metrics schema: %w", err)
	}

	logger.InfoContext(context.Background(), "Metrics collector initialized",
		"db_path", dbPath,
	)

	return collector, nil
}

// Close closes the database connection
func (mc *SQLiteCollector) Close() error {
	return mc.db.Close()
}

// RecordTranscription stores one transcription sample
func (mc *SQLiteCollector) RecordTranscription(ctx context.Context, metrics core.TranscriptionMetrics) error {
	query := `
		INSERT INTO transcription_metrics (
			request_id, audio_bytes, execution_time_ms, success, error_type, timestamp
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	timestamp := metrics.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := mc.db.ExecContext(ctx, query,
		metrics.RequestID,
		metrics.AudioBytes,
		metrics.ExecutionTime.Milliseconds(),
		metrics.Success,
		metrics.ErrorType,
		timestamp.UTC(),
	)
	if err != nil {
		mc.logger.ErrorContext(ctx, "Failed to record transcription metrics",
			"request_id", metrics.RequestID,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to record transcription metrics: %w", err)
	}

	return nil
}

// GetTranscriptionStats aggregates samples recorded at or after since
func (mc *SQLiteCollector) GetTranscriptionStats(ctx context.Context, since time.Time) (*core.TranscriptionStats, error) {
	stats := &core.TranscriptionStats{ErrorsByType: make(map[string]int64)}

	var avg sql.NullFloat64
	var succeeded, audioBytes sql.NullInt64
	err := mc.db.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN success THEN 1 ELSE 0 END), AVG(execution_time_ms), SUM(audio_bytes)
		FROM transcription_metrics
		WHERE timestamp >= ?
	`, since.UTC()).Scan(&stats.Total, &succeeded, &avg, &audioBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcription stats: %w", err)
	}
	stats.Succeeded = succeeded.Int64
	stats.AvgExecutionMs = avg.Float64
	stats.TotalAudioBytes = audioBytes.Int64

	rows, err := mc.db.QueryContext(ctx, `
		SELECT error_type, COUNT(*)
		FROM transcription_metrics
		WHERE timestamp >= ? AND success = 0 AND error_type != ''
		GROUP BY error_type
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query error breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var errorType string
		var count int64
		if err := rows.Scan(&errorType, &count); err != nil {
			mc.logger.WarnContext(ctx, "Failed to scan error breakdown row",
				"error", err.Error(),
			)
			continue
		}
		stats.ErrorsByType[errorType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating error breakdown rows: %w", err)
	}

	return stats, nil
}

// initSchema initializes the database schema
func (mc *SQLiteCollector) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcription_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT,
		audio_bytes INTEGER NOT NULL,
		execution_time_ms INTEGER NOT NULL,
		success BOOLEAN NOT NULL,
		error_type TEXT,
		timestamp DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON transcription_metrics(timestamp);
	CREATE INDEX IF NOT EXISTS idx_metrics_error_type ON transcription_metrics(error_type);
	`

	_, err := mc.db.Exec(schema)
	return err
}
