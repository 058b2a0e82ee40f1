package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mcmon/internal/engine"
	"mcmon/internal/logbuf"
	"mcmon/internal/scroll"
	"mcmon/internal/status"
	"mcmon/internal/stream"
	"mcmon/pkg/logging"
)

// maxBatch bounds how many queued engine events are folded into one update.
const maxBatch = 256

// Engine is the part of the engine the monitor drives.
type Engine interface {
	Events() <-chan engine.Event
	Start()
	Stop()
	RefreshNow()
	ClearLogs()
	Note(level logbuf.Level, message string)
}

// Options configures the monitor.
type Options struct {
	BaseURL         string
	Capacity        int
	ScrollThreshold int
	// BytesStreamed reports log stream traffic. Optional.
	BytesStreamed func() int64
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

// Messages
type eventsMsg []engine.Event
type engineDoneMsg struct{}
type clockMsg time.Time
type flashExpiredMsg struct{ seq int }

// Model is the bubbletea model of the monitor. It mirrors the engine's log
// buffer from events and owns the auto-scroll state.
type Model struct {
	eng  Engine
	opts Options

	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	viewport viewport.Model
	tracker  *scroll.Tracker
	ready    bool
	width    int
	height   int

	lines       []logbuf.Record
	rendered    []string // lines formatted for renderedW
	renderedW   int
	snapshot    status.Snapshot
	controls    status.Controls
	streamState stream.State

	flash    string
	flashSeq int
	quitting bool
}

// New creates the monitor model.
func New(eng Engine, opts Options) Model {
	if opts.Capacity <= 0 {
		opts.Capacity = logbuf.DefaultCapacity
	}
	if opts.BytesStreamed == nil {
		opts.BytesStreamed = func() int64 { return 0 }
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(warningColor)

	return Model{
		eng:      eng,
		opts:     opts,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  s,
		viewport: viewport.New(80, 10),
		tracker:  scroll.New(opts.ScrollThreshold),
	}
}

// Run starts the monitor on the alternate screen and blocks until the user
// quits.
func Run(eng Engine, opts Options) error {
	p := tea.NewProgram(New(eng, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvents(m.eng.Events()),
		m.spinner.Tick,
		clockCmd(),
	)
}

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// waitForEvents blocks for one engine event, then takes whatever else is
// already queued.
func waitForEvents(ch <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return engineDoneMsg{}
		}
		batch := eventsMsg{ev}
		for len(batch) < maxBatch {
			select {
			case ev, ok := <-ch:
				if !ok {
					return batch
				}
				batch = append(batch, ev)
			default:
				return batch
			}
		}
		return batch
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.scrollViewport(msg)

	case eventsMsg:
		m.apply(msg)
		return m, waitForEvents(m.eng.Events())

	case engineDoneMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clockMsg:
		return m, clockCmd()

	case flashExpiredMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Start):
		m.eng.Start()
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.eng.Stop()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.eng.RefreshNow()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.eng.ClearLogs()
		return m, nil

	case key.Matches(msg, m.keys.AutoScroll):
		on := m.tracker.Toggle()
		if on {
			m.viewport.GotoBottom()
			m.eng.Note(logbuf.LevelInfo, "auto-scroll on")
		} else {
			m.eng.Note(logbuf.LevelInfo, "auto-scroll off")
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyLogs):
		return m.copyLogs()

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		m.observeScroll()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		m.observeScroll()
		return m, nil
	}

	return m.scrollViewport(msg)
}

// scrollViewport lets the viewport handle msg. Only an actual position
// change counts as a scroll observation, so a toggle is not undone by
// unrelated input.
func (m Model) scrollViewport(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := m.viewport.YOffset
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if m.viewport.YOffset != before {
		m.observeScroll()
	}
	return m, cmd
}

func (m Model) copyLogs() (tea.Model, tea.Cmd) {
	text := make([]string, len(m.lines))
	for i, r := range m.lines {
		text[i] = r.String()
	}
	if err := m.opts.Clipboard(strings.Join(text, "\n")); err != nil {
		logging.Error("tui", err, "failed to copy logs")
		m.eng.Note(logbuf.LevelError, fmt.Sprintf("copy to clipboard failed: %v", err))
		return m, nil
	}
	return m.setFlash(fmt.Sprintf("copied %d lines to clipboard", len(m.lines)))
}

func (m Model) setFlash(text string) (tea.Model, tea.Cmd) {
	m.flashSeq++
	m.flash = text
	seq := m.flashSeq
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg { return flashExpiredMsg{seq: seq} })
}

// apply folds engine events into the model and re-renders the log once.
func (m *Model) apply(events eventsMsg) {
	logsChanged := false
	for _, ev := range events {
		switch ev := ev.(type) {
		case engine.LogAppended:
			if ev.Change.Evicted != nil && len(m.lines) > 0 {
				m.lines = m.lines[1:]
				m.rendered = m.rendered[1:]
			}
			m.lines = append(m.lines, ev.Change.Inserted)
			m.rendered = append(m.rendered, renderLogLine(ev.Change.Inserted, m.renderedW))
			if n := len(m.lines) - m.opts.Capacity; n > 0 {
				m.lines = m.lines[n:]
				m.rendered = m.rendered[n:]
			}
			logsChanged = true
		case engine.LogsCleared:
			m.lines = nil
			m.rendered = nil
			logsChanged = true
		case engine.StatusReplaced:
			m.snapshot = ev.Snapshot
		case engine.ControlsChanged:
			m.controls = ev.Controls
		case engine.StreamStateChanged:
			m.streamState = ev.State
		}
	}

	if logsChanged {
		m.refreshLog()
	}
}

// refreshLog hands the rendered lines to the viewport. Lines are only
// formatted again when the width changes.
func (m *Model) refreshLog() {
	if m.renderedW != m.viewport.Width {
		m.renderedW = m.viewport.Width
		m.rendered = renderLogLines(m.lines, m.renderedW)
	}
	m.viewport.SetContent(strings.Join(m.rendered, "\n"))
	if m.tracker.Enabled() {
		m.viewport.GotoBottom()
	}
}

// observeScroll feeds the viewport position to the auto-scroll tracker.
func (m *Model) observeScroll() {
	m.tracker.Observe(m.viewport.YOffset, m.viewport.TotalLineCount(), m.viewport.Height)
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	frameW, frameH := logBoxStyle.GetFrameSize()
	appW, appH := appStyle.GetFrameSize()

	w := m.width - appW - frameW
	h := m.height - appH - frameH - lipgloss.Height(m.headerView()) - lipgloss.Height(m.footerView())
	if w < 10 {
		w = 10
	}
	if h < 3 {
		h = 3
	}

	m.viewport.Width = w
	m.viewport.Height = h
	m.ready = true
	m.refreshLog()
}

func (m Model) headerView() string {
	title := titleStyle.Render("Minecraft Server Monitor") + " " + subtleStyle.Render(m.opts.BaseURL)
	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		renderServerBox(m.snapshot),
		renderTunnelBox(m.snapshot),
		renderStreamBox(m.streamState, m.spinner.View(), m.opts.BytesStreamed(), m.snapshot.UpdatedAt, m.tracker.Enabled()),
	)
	return title + "\n\n" + boxes + "\n" + renderControls(m.controls, m.spinner.View())
}

func (m Model) footerView() string {
	s := m.help.View(m.keys)
	if m.flash != "" {
		s = flashStyle.Render(m.flash) + "\n" + s
	}
	return s
}

func (m Model) View() string {
	if m.quitting {
		return "Bye!\n"
	}
	if !m.ready {
		return appStyle.Render(titleStyle.Render("Minecraft Server Monitor") + "\n\n" + m.spinner.View() + "Starting...")
	}

	logView := m.viewport.View()
	if len(m.lines) == 0 {
		logView = subtleStyle.Render("Waiting for logs...")
	}
	logBox := logBoxStyle.Width(m.viewport.Width + 2).Render(logView)

	return appStyle.Render(m.headerView() + "\n" + logBox + "\n" + m.footerView())
}
