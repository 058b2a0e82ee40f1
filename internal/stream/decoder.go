package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxEventSize bounds a single line and the joined data of one event.
const MaxEventSize = 1024 * 1024

// ErrEventTooLarge is returned when the server sends a line or an event
// larger than MaxEventSize. The stream cannot be resynchronised after it.
var ErrEventTooLarge = errors.New("log event too large")

// Event is one dispatched server-sent event.
type Event struct {
	Type string // "message" unless the server sent an event: field
	ID   string // last event id seen on this stream
	Data string
}

// Decoder reads the text/event-stream format. Lines end in LF, CRLF or a
// bare CR.
type Decoder struct {
	scanner *bufio.Scanner
	lastID  string
	afterCR bool
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{scanner: bufio.NewScanner(r)}
	d.scanner.Buffer(make([]byte, 4096), MaxEventSize)
	d.scanner.Split(d.splitLines)
	return d
}

// splitLines is a bufio.SplitFunc for LF, CRLF and CR terminated lines. A
// CRLF pair may straddle two reads, so a trailing CR is remembered and the
// LF that follows it is skipped.
func (d *Decoder) splitLines(data []byte, atEOF bool) (int, []byte, error) {
	if d.afterCR && len(data) > 0 {
		d.afterCR = false
		if data[0] == '\n' {
			return 1, nil, nil
		}
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		d.afterCR = data[i] == '\r'
		return i + 1, data[:i], nil
	}
	// An unterminated final line can never be dispatched.
	return 0, nil, nil
}

// Next blocks until a complete event has been read. At end of stream a
// partially received event is discarded and io.EOF is returned.
func (d *Decoder) Next() (Event, error) {
	var (
		data    strings.Builder
		hasData bool
		typ     string
	)

	for d.scanner.Scan() {
		line := d.scanner.Text()

		if line == "" {
			if !hasData {
				typ = ""
				continue
			}
			if typ == "" {
				typ = "message"
			}
			return Event{Type: typ, ID: d.lastID, Data: data.String()}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			if data.Len()+len(value)+1 > MaxEventSize {
				return Event{}, fmt.Errorf("%w: data exceeds %d bytes", ErrEventTooLarge, MaxEventSize)
			}
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			typ = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		case "retry":
			// The reconnect delay is fixed on our side.
		}
	}

	err := d.scanner.Err()
	switch {
	case err == nil:
		return Event{}, io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return Event{}, fmt.Errorf("%w: line exceeds %d bytes", ErrEventTooLarge, MaxEventSize)
	default:
		return Event{}, err
	}
}
