package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izzddalfk/voicetoehr/internal/voicetoehr/core"
)

type fakeSession struct {
	identity *core.Identity
	loginErr error
	logouts  int
}

func (s *fakeSession) Login(ctx context.Context, username, password string) (bool, error) {
	if s.loginErr != nil {
		return false, s.loginErr
	}
	if username != core.PlaceholderUsername || password != core.PlaceholderPassword {
		return false, nil
	}
	s.identity = &core.Identity{Name: core.PlaceholderIdentityName}
	return true, nil
}

func (s *fakeSession) Logout(ctx context.Context) error {
	s.identity = nil
	s.logouts++
	return nil
}

func (s *fakeSession) Current() *core.Identity {
	return s.identity
}

type fakeRecorder struct {
	state      core.CaptureState
	saved      string
	stopText   string
	stopErr    error
	errMessage string
	fragments  int
	toggles    int
	stops      int
	session    *fakeSession
}

func (r *fakeRecorder) SubjectID() string        { return "p123" }
func (r *fakeRecorder) State() core.CaptureState { return r.state }
func (r *fakeRecorder) ErrorMessage() string     { return r.errMessage }
func (r *fakeRecorder) FragmentCount() int       { return r.fragments }

func (r *fakeRecorder) Mount(ctx context.Context) (string, error) {
	if r.session.Current() == nil {
		return "", nil
	}
	return r.saved, nil
}

func (r *fakeRecorder) Toggle(ctx context.Context) error {
	r.toggles++
	switch r.state {
	case core.StateIdle:
		r.state = core.StateRecording
	case core.StateRecording:
		r.state = core.StatePaused
	case core.StatePaused:
		r.state = core.StateRecording
	default:
		return core.ErrTranscriptionInFlight
	}
	return nil
}

func (r *fakeRecorder) Stop(ctx context.Context) (string, error) {
	r.stops++
	r.state = core.StateIdle
	if r.stopErr != nil {
		r.errMessage = core.MessageTranscriptionError
		return "", r.stopErr
	}
	return r.stopText, nil
}

func newTestModel(loggedIn bool) (Model, *fakeSession, *fakeRecorder) {
	session := &fakeSession{}
	if loggedIn {
		session.identity = &core.Identity{Name: core.PlaceholderIdentityName}
	}
	recorder := &fakeRecorder{session: session}
	return New(context.Background(), session, recorder), session, recorder
}

// press sends a key and runs the resulting commands, stopping before the tick loop
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()

	updated, cmd := m.Update(key)
	model := updated.(Model)

	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			break
		}
		updated, cmd = model.Update(msg)
		model = updated.(Model)
		if _, ok := msg.(ToggleResultMsg); ok {
			break
		}
	}
	return model
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m Model, text string) Model {
	for _, r := range text {
		m = press(t, m, runeKey(string(r)))
	}
	return m
}

func login(t *testing.T, m Model, username, password string) Model {
	t.Helper()

	m = typeText(t, m, username)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, password)
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestNew_ScreenFollowsIdentity(t *testing.T) {
	loggedOut, _, _ := newTestModel(false)
	assert.Equal(t, screenLogin, loggedOut.screen)

	loggedIn, _, _ := newTestModel(true)
	assert.Equal(t, screenRecorder, loggedIn.screen)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		username       string
		password       string
		loginErr       error
		expectedScreen screen
		expectedError  string
	}{
		{
			name:           "placeholder credential",
			username:       "admin",
			password:       "vtehr",
			expectedScreen: screenRecorder,
		},
		{
			name:           "wrong password",
			username:       "admin",
			password:       "nope",
			expectedScreen: screenLogin,
			expectedError:  loginFailedText,
		},
		{
			name:           "storage failure",
			username:       "admin",
			password:       "vtehr",
			loginErr:       errors.New("disk full"),
			expectedScreen: screenLogin,
			expectedError:  "disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, session, _ := newTestModel(false)
			session.loginErr = tt.loginErr

			m = login(t, m, tt.username, tt.password)

			assert.Equal(t, tt.expectedScreen, m.screen)
			assert.Equal(t, tt.expectedError, m.loginError)
			assert.Empty(t, m.password)
		})
	}
}

func TestLogin_ShowsSavedTranscript(t *testing.T) {
	m, _, recorder := newTestModel(false)
	recorder.saved = "saved note"

	m = login(t, m, "admin", "vtehr")

	assert.Equal(t, "saved note", m.transcript)
	assert.Contains(t, m.View(), "saved note")
}

func TestLoginForm_Editing(t *testing.T) {
	m, _, _ := newTestModel(false)

	m = typeText(t, m, "adminx")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "admin", m.username)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, fieldPassword, m.focus)

	m = typeText(t, m, "secret")
	assert.NotContains(t, m.View(), "secret")
	assert.Contains(t, m.View(), "******")
}

func TestToggleCycle(t *testing.T) {
	m, _, recorder := newTestModel(true)

	m = press(t, m, runeKey(KeyToggle))
	assert.Equal(t, core.StateRecording, recorder.state)
	assert.False(t, m.lastTick.IsZero())
	assert.Contains(t, m.View(), "pause recording")

	m = press(t, m, runeKey(KeyToggle))
	assert.Equal(t, core.StatePaused, recorder.state)
	assert.Contains(t, m.View(), "resume recording")

	m = press(t, m, runeKey(KeyToggle))
	assert.Equal(t, core.StateRecording, recorder.state)
	assert.Equal(t, 3, recorder.toggles)
}

func TestStop_Transcribes(t *testing.T) {
	m, _, recorder := newTestModel(true)
	recorder.stopText = "patient reports mild headache"

	m = press(t, m, runeKey(KeyToggle))
	m = press(t, m, runeKey(KeyStop))

	assert.Equal(t, 1, recorder.stops)
	assert.False(t, m.stopPending)
	assert.Equal(t, "patient reports mild headache", m.transcript)
	assert.True(t, m.lastTick.IsZero())
}

func TestStop_DisabledWhenIdle(t *testing.T) {
	m, _, recorder := newTestModel(true)

	_, cmd := m.Update(runeKey(KeyStop))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, recorder.stops)
}

func TestStop_DisabledWhileTranscribing(t *testing.T) {
	m, _, recorder := newTestModel(true)
	m = press(t, m, runeKey(KeyToggle))

	updated, cmd := m.Update(runeKey(KeyStop))
	require.NotNil(t, cmd)
	m = updated.(Model)
	assert.True(t, m.stopPending)
	assert.Contains(t, m.View(), "transcribing...")

	// toggle and a second stop are ignored until the result arrives
	_, again := m.Update(runeKey(KeyStop))
	assert.Nil(t, again)
	_, toggle := m.Update(runeKey(KeyToggle))
	assert.Nil(t, toggle)

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	assert.False(t, m.stopPending)
	assert.Equal(t, 1, recorder.stops)
}

func TestQuit_IgnoredWhileTranscribing(t *testing.T) {
	m, _, recorder := newTestModel(true)
	m = press(t, m, runeKey(KeyToggle))

	updated, stop := m.Update(runeKey(KeyStop))
	require.NotNil(t, stop)
	m = updated.(Model)
	require.True(t, m.stopPending)

	for _, key := range []tea.KeyMsg{runeKey(KeyQuit), runeKey(KeyQuitUpper), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(key)
		assert.Nil(t, cmd, key.String())
	}

	updated, _ = m.Update(stop())
	m = updated.(Model)
	assert.False(t, m.stopPending)
	assert.Equal(t, 1, recorder.stops)

	_, cmd := m.Update(runeKey(KeyQuit))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestQuit_WhileRecording(t *testing.T) {
	m, _, recorder := newTestModel(true)
	m = press(t, m, runeKey(KeyToggle))
	require.Equal(t, core.StateRecording, recorder.state)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStop_FailureShowsError(t *testing.T) {
	m, _, recorder := newTestModel(true)
	recorder.stopErr = errors.New("gateway down")
	m.transcript = "earlier note"

	m = press(t, m, runeKey(KeyToggle))
	m = press(t, m, runeKey(KeyStop))

	assert.Equal(t, "earlier note", m.transcript)
	assert.Contains(t, m.View(), core.MessageTranscriptionError)
}

func TestLogout(t *testing.T) {
	m, session, recorder := newTestModel(true)
	recorder.saved = "saved note"
	m.transcript = "saved note"

	m = press(t, m, runeKey(KeyLogout))

	assert.Equal(t, 1, session.logouts)
	assert.Equal(t, screenLogin, m.screen)
	assert.Empty(t, m.transcript)
}

func TestLogout_IgnoredWhileRecording(t *testing.T) {
	m, session, _ := newTestModel(true)
	m = press(t, m, runeKey(KeyToggle))

	_, cmd := m.Update(runeKey(KeyLogout))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, session.logouts)
}

func TestTick_AccumulatesOnlyWhileRecording(t *testing.T) {
	m, _, recorder := newTestModel(true)
	m = press(t, m, runeKey(KeyToggle))
	start := m.lastTick

	updated, cmd := m.Update(TickMsg(start.Add(2 * time.Second)))
	m = updated.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, 2*time.Second, m.elapsed)

	recorder.state = core.StatePaused
	updated, _ = m.Update(TickMsg(start.Add(5 * time.Second)))
	m = updated.(Model)
	assert.Equal(t, 2*time.Second, m.elapsed)

	recorder.state = core.StateIdle
	_, cmd = m.Update(TickMsg(start.Add(6 * time.Second)))
	assert.Nil(t, cmd)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00", formatElapsed(0))
	assert.Equal(t, "01:05", formatElapsed(65*time.Second))
	assert.Equal(t, "12:00", formatElapsed(12*time.Minute+200*time.Millisecond))
}
