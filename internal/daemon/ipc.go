package daemon

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"mcmon/internal/logbuf"
	"mcmon/internal/status"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message types sent over the socket.
const (
	MessageStatus = "status"
	MessageError  = "error"
)

// WatchStatus is the state of a background watcher as seen by its last
// events.
type WatchStatus struct {
	PID       int             `json:"pid" yaml:"pid"`
	BaseURL   string          `json:"base_url" yaml:"base_url"`
	StartTime time.Time       `json:"start_time" yaml:"start_time"`
	Uptime    int64           `json:"uptime" yaml:"uptime"` // Duration in seconds
	Stream    string          `json:"stream" yaml:"stream"`
	Snapshot  status.Snapshot `json:"snapshot" yaml:"snapshot"`
	Controls  status.Controls `json:"controls" yaml:"controls"`
	Logs      []logbuf.Record `json:"logs" yaml:"logs"`
}

// Message is the IPC message format
type Message struct {
	Type string              `json:"type"` // "status", "error"
	Data jsoniter.RawMessage `json:"data"`
}
