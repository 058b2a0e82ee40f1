package daemon

import (
	"os"
	"sync"
	"time"

	"mcmon/internal/engine"
	"mcmon/internal/logbuf"
	"mcmon/internal/status"
	"mcmon/internal/stream"
)

// DefaultRecentLogs is how many of the newest log records a status reply
// carries.
const DefaultRecentLogs = 10

// State mirrors engine events for readers on other goroutines. The headless
// watcher feeds it and the socket server reads it.
type State struct {
	baseURL   string
	startTime time.Time
	maxLogs   int

	mu       sync.RWMutex
	stream   stream.State
	snapshot status.Snapshot
	controls status.Controls
	logs     []logbuf.Record
}

// NewState returns an empty state that keeps the newest maxLogs records.
func NewState(baseURL string, maxLogs int) *State {
	if maxLogs <= 0 {
		maxLogs = DefaultRecentLogs
	}
	return &State{
		baseURL:   baseURL,
		startTime: time.Now(),
		maxLogs:   maxLogs,
		logs:      make([]logbuf.Record, 0, maxLogs),
	}
}

// Apply folds one engine event into the state.
func (s *State) Apply(ev engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev := ev.(type) {
	case engine.LogAppended:
		s.logs = append(s.logs, ev.Change.Inserted)
		if len(s.logs) > s.maxLogs {
			s.logs = s.logs[1:]
		}
	case engine.LogsCleared:
		s.logs = s.logs[:0]
	case engine.StatusReplaced:
		s.snapshot = ev.Snapshot
	case engine.ControlsChanged:
		s.controls = ev.Controls
	case engine.StreamStateChanged:
		s.stream = ev.State
	}
}

// Status returns a copy of the current state.
func (s *State) Status() WatchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]logbuf.Record, len(s.logs))
	copy(logs, s.logs)

	return WatchStatus{
		PID:       os.Getpid(),
		BaseURL:   s.baseURL,
		StartTime: s.startTime,
		Uptime:    int64(time.Since(s.startTime).Seconds()),
		Stream:    s.stream.String(),
		Snapshot:  s.snapshot,
		Controls:  s.controls,
		Logs:      logs,
	}
}
