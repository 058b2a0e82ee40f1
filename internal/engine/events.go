package engine

import (
	"mcmon/internal/logbuf"
	"mcmon/internal/status"
	"mcmon/internal/stream"
)

// Event is a plain-data notification for the presentation layer.
type Event interface {
	isEvent()
}

// LogAppended carries one new record and the record it evicted, if any.
type LogAppended struct {
	Change logbuf.Change
}

// LogsCleared is sent before the notice record that follows every clear.
type LogsCleared struct{}

// StatusReplaced carries the result of a successful reconciliation.
type StatusReplaced struct {
	Snapshot status.Snapshot
}

// ControlsChanged carries the current enabled state of start and stop.
type ControlsChanged struct {
	Controls status.Controls
}

// StreamStateChanged reports a log stream transition.
type StreamStateChanged struct {
	State stream.State
}

func (LogAppended) isEvent()        {}
func (LogsCleared) isEvent()        {}
func (StatusReplaced) isEvent()     {}
func (ControlsChanged) isEvent()    {}
func (StreamStateChanged) isEvent() {}
