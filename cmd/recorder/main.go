// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/audiosource"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/gatewayclient"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/microphone"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/sessionstore"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/adapters/wavpackager"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/config"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/presentation/tui"
)

const recorderCloseTimeout = 5 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config.LoadEnvFile(os.Getenv("ENV_FILE"))

	// Load configuration
	cfg, err := config.LoadRecorderConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The TUI owns stdout, so logs go to a file
	logger, closeLog, err := setupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	store, closeStore, err := initializeStore(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer closeStore()

	session, err := core.NewSessionService(core.SessionServiceConfig{
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize session service: %v", err)
	}
	if err := session.Restore(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to restore session", "error", err.Error())
	}

	source, err := initializeAudioSource(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize audio source: %v", err)
	}

	client, err := gatewayclient.NewClient(gatewayclient.ClientConfig{
		BaseURL: cfg.GatewayURL,
		Timeout: cfg.GatewayTimeout,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize gateway client: %v", err)
	}

	recorder, err := core.NewRecorder(core.RecorderConfig{
		SubjectID:  cfg.SubjectID,
		Source:     source,
		Packager:   wavpackager.NewPackager(),
		Client:     client,
		Identities: session,
		Store:      store,
		OnTranscriptionComplete: func(text string) {
			logger.DebugContext(ctx, "Transcript surfaced", "text_length", len(text))
		},
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize recorder: %v", err)
	}

	logger.InfoContext(ctx, "Starting recorder",
		"subject_id", cfg.SubjectID,
		"gateway_url", cfg.GatewayURL,
		"audio_source", cfg.AudioSource,
		"store", cfg.Store,
	)

	program := tea.NewProgram(tui.New(ctx, session, recorder), tea.WithAltScreen())
	_, runErr := program.Run()

	closeCtx, cancelClose := context.WithTimeout(context.Background(), recorderCloseTimeout)
	if err := recorder.Close(closeCtx); err != nil {
		logger.WarnContext(ctx, "Failed to close recorder", "error", err)
	}
	cancelClose()

	if runErr != nil {
		logger.ErrorContext(ctx, "TUI error", "error", runErr)
		fmt.Fprintf(os.Stderr, "recorder: %v\n", runErr)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Recorder shutdown completed")
}

// setupLogger writes JSON logs to logFile
func setupLogger(logLevel, logFile string) (*slog.Logger, func(), error) {
	var level slog.Level
	switch logLevel {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return logger, func() { file.Close() }, nil
}

func initializeStore(cfg *config.RecorderConfig, logger *slog.Logger) (core.SessionStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		return sessionstore.NewMemoryStore(logger), func() {}, nil
	}

	store, err := sessionstore.NewSQLiteStore(cfg.StorePath, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func initializeAudioSource(cfg *config.RecorderConfig, logger *slog.Logger) (core.AudioSource, error) {
	if cfg.AudioSource == config.AudioSourceFile {
		return audiosource.NewFileSource(audiosource.FileSourceConfig{
			Path:     cfg.AudioFile,
			Realtime: true,
			Logger:   logger,
		})
	}

	return microphone.NewSource(microphone.SourceConfig{Logger: logger})
}
