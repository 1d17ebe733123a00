package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

const (
	tickInterval      = 250 * time.Millisecond
	transcriptWidth   = 72
	loginFailedText   = "Invalid username or password"
	transcriptHint    = "No transcript yet. Press r to record."
	transcribingLabel = "Transcribing..."
)

// Session is the identity holder the TUI logs in and out of.
type Session interface {
	Login(ctx context.Context, username, password string) (bool, error)
	Logout(ctx context.Context) error
	Current() *core.Identity
}

// Recorder is the capture cycle driven by the TUI keys.
type Recorder interface {
	SubjectID() string
	State() core.CaptureState
	ErrorMessage() string
	FragmentCount() int
	Mount(ctx context.Context) (string, error)
	Toggle(ctx context.Context) error
	Stop(ctx context.Context) (string, error)
}

type screen int

const (
	screenLogin screen = iota
	screenRecorder
)

type loginField int

const (
	fieldUsername loginField = iota
	fieldPassword
)

// Model is the root bubbletea model for the recorder TUI.
type Model struct {
	ctx      context.Context
	session  Session
	recorder Recorder

	screen screen

	// Login form
	username   string
	password   string
	focus      loginField
	loginError string
	submitting bool

	// Recorder view
	transcript  string
	lastTick    time.Time
	elapsed     time.Duration
	stopPending bool
	statusError string
	width       int
	height      int
}

// New creates the model. The recorder view is shown directly when an
// identity was restored.
func New(ctx context.Context, session Session, recorder Recorder) Model {
	m := Model{
		ctx:      ctx,
		session:  session,
		recorder: recorder,
		screen:   screenLogin,
	}
	if session.Current() != nil {
		m.screen = screenRecorder
	}
	return m
}

// Init mounts the recorder so a saved transcript is shown.
func (m Model) Init() tea.Cmd {
	return m.mountCmd()
}

func (m Model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		text, err := m.recorder.Mount(m.ctx)
		return MountedMsg{Text: text, Err: err}
	}
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		ok, err := m.session.Login(m.ctx, username, password)
		return LoginResultMsg{OK: ok, Err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return LogoutResultMsg{Err: m.session.Logout(m.ctx)}
	}
}

func (m Model) toggleCmd() tea.Cmd {
	return func() tea.Msg {
		return ToggleResultMsg{Err: m.recorder.Toggle(m.ctx)}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		text, err := m.recorder.Stop(m.ctx)
		return TranscriptionResultMsg{Text: text, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles incoming messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case LoginResultMsg:
		m.submitting = false
		m.password = ""
		if msg.Err != nil {
			m.loginError = msg.Err.Error()
			return m, nil
		}
		if !msg.OK {
			m.loginError = loginFailedText
			return m, nil
		}
		m.loginError = ""
		m.username = ""
		m.focus = fieldUsername
		m.screen = screenRecorder
		return m, m.mountCmd()

	case LogoutResultMsg:
		if msg.Err != nil {
			m.statusError = msg.Err.Error()
		}
		m.transcript = ""
		m.screen = screenLogin
		return m, m.mountCmd()

	case MountedMsg:
		if msg.Err != nil {
			m.statusError = msg.Err.Error()
			return m, nil
		}
		m.transcript = msg.Text
		return m, nil

	case ToggleResultMsg:
		if msg.Err != nil {
			return m, nil
		}
		if m.lastTick.IsZero() && m.capturing() {
			m.lastTick = time.Now()
			m.elapsed = 0
			return m, tickCmd()
		}
		return m, nil

	case TranscriptionResultMsg:
		m.stopPending = false
		m.lastTick = time.Time{}
		if msg.Err == nil {
			m.transcript = msg.Text
		}
		return m, nil

	case TickMsg:
		if m.lastTick.IsZero() || !m.capturing() {
			return m, nil
		}
		now := time.Time(msg)
		if m.recorder.State() == core.StateRecording {
			m.elapsed += now.Sub(m.lastTick)
		}
		m.lastTick = now
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) capturing() bool {
	state := m.recorder.State()
	return state == core.StateRecording || state == core.StatePaused
}

// stopEnabled mirrors the stop button: usable only while a capture exists
// and no transcription is running.
func (m Model) stopEnabled() bool {
	return !m.stopPending && m.capturing()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == KeyCtrlC {
		if m.stopPending {
			return m, nil
		}
		return m, tea.Quit
	}

	if m.screen == screenLogin {
		return m.handleLoginKey(msg)
	}

	switch key {
	case KeyQuit, KeyQuitUpper:
		// the transcript of an in-flight stop would be lost
		if m.stopPending {
			return m, nil
		}
		return m, tea.Quit

	case KeyToggle:
		if m.stopPending {
			return m, nil
		}
		m.statusError = ""
		return m, m.toggleCmd()

	case KeyStop:
		if !m.stopEnabled() {
			return m, nil
		}
		m.stopPending = true
		m.statusError = ""
		return m, m.stopCmd()

	case KeyLogout:
		if m.stopPending || m.recorder.State() != core.StateIdle {
			return m, nil
		}
		return m, m.logoutCmd()
	}

	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case KeyEsc:
		return m, tea.Quit

	case KeyTab, KeyShiftTab:
		if m.focus == fieldUsername {
			m.focus = fieldPassword
		} else {
			m.focus = fieldUsername
		}
		return m, nil

	case KeyEnter:
		if m.focus == fieldUsername {
			m.focus = fieldPassword
			return m, nil
		}
		m.submitting = true
		m.loginError = ""
		return m, m.loginCmd(m.username, m.password)

	case KeyBackspace:
		if m.focus == fieldUsername {
			m.username = trimLastRune(m.username)
		} else {
			m.password = trimLastRune(m.password)
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		if m.focus == fieldUsername {
			m.username += text
		} else {
			m.password += text
		}
	}

	return m, nil
}

func trimLastRune(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}

// View renders the model.
func (m Model) View() string {
	if m.screen == screenLogin {
		return m.viewLogin()
	}
	return m.viewRecorder()
}

func (m Model) viewLogin() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Voice to EHR"))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("Sign in to record notes"))
	b.WriteString("\n\n")

	b.WriteString(m.renderField("Username", m.username, m.focus == fieldUsername))
	b.WriteString("\n")
	b.WriteString(m.renderField("Password", strings.Repeat("*", len([]rune(m.password))), m.focus == fieldPassword))
	b.WriteString("\n\n")

	if m.submitting {
		b.WriteString(dimStyle.Render("Signing in..."))
		b.WriteString("\n\n")
	}
	if m.loginError != "" {
		b.WriteString(errorBoxStyle.Render(m.loginError))
		b.WriteString("\n\n")
	}

	b.WriteString(renderFooter([]footerItem{
		{key: "tab", desc: "next field", enabled: true},
		{key: "enter", desc: "sign in", enabled: true},
		{key: "esc", desc: "quit", enabled: true},
	}))
	return b.String()
}

func (m Model) renderField(label, value string, focused bool) string {
	style := labelStyle
	cursor := ""
	if focused {
		style = focusedLabelStyle
		cursor = "_"
	}
	return fmt.Sprintf("%s %s%s", style.Render(fmt.Sprintf("%-9s", label+":")), value, cursor)
}

func (m Model) viewRecorder() string {
	var b strings.Builder
	state := m.recorder.State()

	header := titleStyle.Render("Voice to EHR")
	if identity := m.session.Current(); identity != nil {
		header += statusStyle.Render("  " + identity.Name)
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("Patient " + m.recorder.SubjectID()))
	b.WriteString("\n\n")

	b.WriteString(m.renderState(state))
	b.WriteString("\n\n")

	if message := m.errorMessage(); message != "" {
		b.WriteString(errorBoxStyle.Width(transcriptWidth).Render(message))
		b.WriteString("\n\n")
	}

	transcript := m.transcript
	if transcript == "" {
		transcript = dimStyle.Render(transcriptHint)
	}
	b.WriteString(transcriptBoxStyle.Width(transcriptWidth).Render(transcript))
	b.WriteString("\n\n")

	b.WriteString(renderFooter([]footerItem{
		{key: KeyToggle, desc: toggleLabel(state), enabled: !m.stopPending},
		{key: KeyStop, desc: stopLabel(state, m.stopPending), enabled: m.stopEnabled()},
		{key: KeyLogout, desc: "logout", enabled: !m.stopPending && state == core.StateIdle},
		{key: KeyQuit, desc: "quit", enabled: !m.stopPending},
	}))
	return b.String()
}

func (m Model) errorMessage() string {
	if message := m.recorder.ErrorMessage(); message != "" {
		return message
	}
	return m.statusError
}

func (m Model) renderState(state core.CaptureState) string {
	switch state {
	case core.StateRecording:
		return lipgloss.JoinHorizontal(lipgloss.Top,
			recordingDotStyle.Render("● REC"),
			statusStyle.Render(fmt.Sprintf("  %s  %d fragments", formatElapsed(m.elapsed), m.recorder.FragmentCount())),
		)
	case core.StatePaused:
		return lipgloss.JoinHorizontal(lipgloss.Top,
			pausedDotStyle.Render("❚❚ PAUSED"),
			statusStyle.Render(fmt.Sprintf("  %s  %d fragments", formatElapsed(m.elapsed), m.recorder.FragmentCount())),
		)
	case core.StateStopped, core.StateTranscribing:
		return transcribingStyle.Render(transcribingLabel)
	default:
		return idleDotStyle.Render("○ Ready")
	}
}

func toggleLabel(state core.CaptureState) string {
	switch state {
	case core.StateRecording:
		return "pause recording"
	case core.StatePaused:
		return "resume recording"
	default:
		return "record"
	}
}

func stopLabel(state core.CaptureState, pending bool) string {
	if pending || state == core.StateStopped || state == core.StateTranscribing {
		return strings.ToLower(transcribingLabel)
	}
	return "stop"
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

type footerItem struct {
	key     string
	desc    string
	enabled bool
}

func renderFooter(items []footerItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if !item.enabled {
			parts = append(parts, disabledKeyStyle.Render(item.key+" "+item.desc))
			continue
		}
		parts = append(parts, footerKeyStyle.Render(item.key)+" "+footerDescStyle.Render(item.desc))
	}
	return strings.Join(parts, dimStyle.Render("  •  "))
}
