package logbuf

import (
	"fmt"
	"strings"
	"time"
)

// Level is the severity of an operator-visible log record.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// TimestampFormat is the wall-clock format used for locally created records.
const TimestampFormat = "15:04:05"

// ParseLevel accepts the four level names case-insensitively. An empty
// string means info.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelInfo:
		return LevelInfo, nil
	case LevelSuccess:
		return LevelSuccess, nil
	case LevelWarning, "warn":
		return LevelWarning, nil
	case LevelError:
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Record is one line of the operator log. Records are values and never
// change after creation.
type Record struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Message   string `json:"message" yaml:"message"`
	Level     Level  `json:"level" yaml:"level"`
}

// NewRecord stamps a locally generated record.
func NewRecord(level Level, message string, at time.Time) Record {
	return Record{
		Timestamp: at.Format(TimestampFormat),
		Message:   message,
		Level:     level,
	}
}

// String renders the record the way the managed server prints it.
func (r Record) String() string {
	return fmt.Sprintf("[%s] [%s] %s", r.Timestamp, strings.ToUpper(string(r.Level)), r.Message)
}
