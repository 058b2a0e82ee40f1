package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmon/internal/api"
	"mcmon/internal/engine"
	"mcmon/internal/logbuf"
	"mcmon/internal/status"
	"mcmon/internal/stream"
)

type fakeEngine struct {
	events chan engine.Event
	calls  []string
	notes  []logbuf.Record
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan engine.Event, 16)}
}

func (f *fakeEngine) Events() <-chan engine.Event { return f.events }
func (f *fakeEngine) Start()                      { f.calls = append(f.calls, "start") }
func (f *fakeEngine) Stop()                       { f.calls = append(f.calls, "stop") }
func (f *fakeEngine) RefreshNow()                 { f.calls = append(f.calls, "refresh") }
func (f *fakeEngine) ClearLogs()                  { f.calls = append(f.calls, "clear") }
func (f *fakeEngine) Note(level logbuf.Level, message string) {
	f.notes = append(f.notes, logbuf.Record{Level: level, Message: message})
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func appended(msg string) engine.Event {
	return engine.LogAppended{Change: logbuf.Change{Inserted: logbuf.Record{Timestamp: "10:00:00", Message: msg, Level: logbuf.LevelInfo}}}
}

func sizedModel(t *testing.T, eng *fakeEngine, opts Options) Model {
	t.Helper()
	m := New(eng, opts)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func TestModel_MirrorsBufferFromEvents(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{Capacity: 3})

	oldest := logbuf.Record{Message: "one"}
	m = update(t, m, eventsMsg{
		engine.LogAppended{Change: logbuf.Change{Inserted: oldest}},
		appended("two"),
		appended("three"),
		engine.LogAppended{Change: logbuf.Change{Inserted: logbuf.Record{Message: "four"}, Evicted: &oldest}},
	})

	var got []string
	for _, r := range m.lines {
		got = append(got, r.Message)
	}
	assert.Equal(t, []string{"two", "three", "four"}, got)

	m = update(t, m, eventsMsg{engine.LogsCleared{}, appended("logs cleared")})
	require.Len(t, m.lines, 1)
	assert.Equal(t, "logs cleared", m.lines[0].Message)
}

func TestModel_StatusEvents(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{BaseURL: "http://mc.local/api"})

	snap := status.Snapshot{
		Server:    api.ServerStatus{Running: true, Players: "3/20", Version: "1.20.4"},
		Tunnel:    api.TunnelStatus{Mode: "relay", Running: true, URL: "mc.example.net"},
		UpdatedAt: time.Now(),
	}
	m = update(t, m, eventsMsg{
		engine.StatusReplaced{Snapshot: snap},
		engine.ControlsChanged{Controls: status.Controls{StopEnabled: true}},
		engine.StreamStateChanged{State: stream.Connected},
	})

	assert.Equal(t, snap, m.snapshot)
	assert.True(t, m.controls.StopEnabled)
	assert.Equal(t, stream.Connected, m.streamState)

	view := m.View()
	assert.Contains(t, view, "3/20 (15%)")
	assert.Contains(t, view, "mc.example.net")
	assert.Contains(t, view, "http://mc.local/api")
}

func TestModel_AutoScrollFollowsScrollPosition(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{})

	batch := eventsMsg{}
	for i := 0; i < 200; i++ {
		batch = append(batch, appended(fmt.Sprintf("line %d", i)))
	}
	m = update(t, m, batch)
	assert.True(t, m.tracker.Enabled())
	assert.True(t, m.viewport.AtBottom(), "new lines scroll to the bottom")

	// Jumping to the oldest line leaves the bottom zone.
	m = update(t, m, keyPress("g"))
	assert.False(t, m.tracker.Enabled())
	assert.Equal(t, 0, m.viewport.YOffset)

	m = update(t, m, eventsMsg{appended("more")})
	assert.Equal(t, 0, m.viewport.YOffset, "no auto-scroll while reading history")

	// Returning to the bottom resumes following.
	m = update(t, m, keyPress("G"))
	assert.True(t, m.tracker.Enabled())
	assert.Empty(t, eng.notes, "scroll observations are silent")
}

func TestModel_ScrollUpOneLineStopsFollowing(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{})

	batch := eventsMsg{}
	for i := 0; i < 200; i++ {
		batch = append(batch, appended(fmt.Sprintf("line %d", i)))
	}
	m = update(t, m, batch)
	require.True(t, m.viewport.AtBottom())

	m = update(t, m, keyPress("k"))
	assert.False(t, m.tracker.Enabled())
	offset := m.viewport.YOffset

	m = update(t, m, eventsMsg{appended("more")})
	assert.Equal(t, offset, m.viewport.YOffset, "one line of history is still history")

	m = update(t, m, keyPress("j"))
	assert.False(t, m.viewport.AtBottom(), "the new line is below")
	m = update(t, m, keyPress("j"))
	assert.True(t, m.viewport.AtBottom())
	assert.True(t, m.tracker.Enabled())
}

func TestModel_ScrollThresholdSlack(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{ScrollThreshold: 3})

	batch := eventsMsg{}
	for i := 0; i < 200; i++ {
		batch = append(batch, appended(fmt.Sprintf("line %d", i)))
	}
	m = update(t, m, batch)

	for i := 0; i < 3; i++ {
		m = update(t, m, keyPress("k"))
	}
	assert.True(t, m.tracker.Enabled(), "within the slack")

	m = update(t, m, keyPress("k"))
	assert.False(t, m.tracker.Enabled())
}

func TestModel_RenderedLinesFollowChanges(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{Capacity: 2})

	first := logbuf.Record{Timestamp: "10:00:00", Message: "first"}
	m = update(t, m, eventsMsg{
		engine.LogAppended{Change: logbuf.Change{Inserted: first}},
		appended("second"),
		engine.LogAppended{Change: logbuf.Change{Inserted: logbuf.Record{Timestamp: "10:00:00", Message: "third"}, Evicted: &first}},
	})
	require.Len(t, m.rendered, 2)
	assert.Equal(t, renderLogLines(m.lines, m.viewport.Width), m.rendered)

	// A resize formats every line again for the new width.
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 40})
	assert.Equal(t, m.viewport.Width, m.renderedW)
	assert.Equal(t, renderLogLines(m.lines, m.viewport.Width), m.rendered)

	m = update(t, m, eventsMsg{engine.LogsCleared{}})
	assert.Empty(t, m.rendered)
}

func TestModel_ToggleAutoScroll(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{})

	batch := eventsMsg{}
	for i := 0; i < 200; i++ {
		batch = append(batch, appended(fmt.Sprintf("line %d", i)))
	}
	m = update(t, m, batch)
	m = update(t, m, keyPress("g"))
	require.False(t, m.tracker.Enabled())

	m = update(t, m, keyPress("a"))
	assert.True(t, m.tracker.Enabled())
	assert.True(t, m.viewport.AtBottom())

	m = update(t, m, keyPress("a"))
	assert.False(t, m.tracker.Enabled())

	require.Len(t, eng.notes, 2)
	assert.Equal(t, "auto-scroll on", eng.notes[0].Message)
	assert.Equal(t, "auto-scroll off", eng.notes[1].Message)
}

func TestModel_ToggleOffSurvivesUnrelatedInput(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{})
	m = update(t, m, eventsMsg{appended("one")})
	require.True(t, m.tracker.Enabled())

	m = update(t, m, keyPress("a"))
	require.False(t, m.tracker.Enabled())

	m = update(t, m, keyPress("z"))
	m = update(t, m, tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionMotion})
	assert.False(t, m.tracker.Enabled(), "only a scroll is an observation")

	m = update(t, m, eventsMsg{appended("two")})
	assert.False(t, m.tracker.Enabled())
}

func TestModel_CommandKeys(t *testing.T) {
	eng := newFakeEngine()
	m := sizedModel(t, eng, Options{})

	for _, k := range []string{"s", "x", "r", "c"} {
		m = update(t, m, keyPress(k))
	}
	assert.Equal(t, []string{"start", "stop", "refresh", "clear"}, eng.calls)

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_CopyLogs(t *testing.T) {
	eng := newFakeEngine()
	var copied string
	m := sizedModel(t, eng, Options{Clipboard: func(s string) error {
		copied = s
		return nil
	}})
	m = update(t, m, eventsMsg{appended("first"), appended("second")})

	m = update(t, m, keyPress("y"))
	assert.Equal(t, "[10:00:00] [INFO] first\n[10:00:00] [INFO] second", copied)
	assert.Equal(t, "copied 2 lines to clipboard", m.flash)

	failing := sizedModel(t, eng, Options{Clipboard: func(string) error { return errors.New("no display") }})
	update(t, failing, keyPress("y"))
	require.Len(t, eng.notes, 1)
	assert.Equal(t, logbuf.LevelError, eng.notes[0].Level)
}

func TestModel_EngineDoneQuits(t *testing.T) {
	eng := newFakeEngine()
	close(eng.events)

	msg := waitForEvents(eng.Events())()
	assert.IsType(t, engineDoneMsg{}, msg)
}

func TestWaitForEvents_Batches(t *testing.T) {
	eng := newFakeEngine()
	eng.events <- appended("a")
	eng.events <- appended("b")
	eng.events <- engine.LogsCleared{}

	msg := waitForEvents(eng.Events())()
	batch, ok := msg.(eventsMsg)
	require.True(t, ok)
	assert.Len(t, batch, 3)
}

func TestRenderLogLines_Truncates(t *testing.T) {
	recs := []logbuf.Record{{Timestamp: "10:00:00", Message: strings.Repeat("x", 100), Level: logbuf.LevelWarning}}
	out := strings.Join(renderLogLines(recs, 20), "\n")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("x", 20))
}

func TestParseSetup(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		interval string
		want     SetupResult
		wantErr  bool
	}{
		{"defaults", "http://localhost:7860/api/", "", SetupResult{BaseURL: "http://localhost:7860/api"}, false},
		{"with interval", "https://mc.example.net/api", "10s", SetupResult{BaseURL: "https://mc.example.net/api", PollInterval: 10 * time.Second}, false},
		{"bad scheme", "ftp://host/api", "", SetupResult{}, true},
		{"no host", "http://", "", SetupResult{}, true},
		{"bad interval", "http://host/api", "soon", SetupResult{}, true},
		{"zero interval", "http://host/api", "0s", SetupResult{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSetup(tt.url, tt.interval)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupModel_Flow(t *testing.T) {
	m := newSetupModel(SetupResult{BaseURL: "http://localhost:7860/api", PollInterval: 5 * time.Second})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(setupModel)
	assert.Equal(t, 1, m.focusIndex)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(setupModel)
	require.NotNil(t, m.result)
	assert.Equal(t, "http://localhost:7860/api", m.result.BaseURL)
	assert.Equal(t, 5*time.Second, m.result.PollInterval)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSetupModel_Cancel(t *testing.T) {
	m := newSetupModel(SetupResult{})
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, next.(setupModel).cancelled)
}
