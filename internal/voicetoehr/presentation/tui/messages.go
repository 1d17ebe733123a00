package tui

import "time"

// LoginResultMsg carries the outcome of a login attempt.
type LoginResultMsg struct {
	OK  bool
	Err error
}

// LogoutResultMsg is sent once the session and stored transcripts are cleared.
type LogoutResultMsg struct {
	Err error
}

// MountedMsg carries the transcript surfaced when the recorder view appears.
type MountedMsg struct {
	Text string
	Err  error
}

// ToggleResultMsg is sent after record, pause or resume.
type ToggleResultMsg struct {
	Err error
}

// TranscriptionResultMsg carries the result of stop-and-transcribe.
type TranscriptionResultMsg struct {
	Text string
	Err  error
}

// TickMsg refreshes the elapsed time while capturing.
type TickMsg time.Time
