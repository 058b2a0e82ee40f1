package api

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is.
var (
	ErrNetwork  = errors.New("network error")
	ErrProtocol = errors.New("protocol error")
)

// NetworkError is a transport failure: refused connection, DNS failure,
// timeout or cancellation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ProtocolError means the server answered, but not with a 2xx status or not
// with a body of the expected shape.
type ProtocolError struct {
	Op         string
	StatusCode int    // 0 when the status was fine but the body was not
	Status     string // e.g. "500 Internal Server Error"
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
