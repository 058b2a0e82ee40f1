package api

import (
	"io"
	"sync/atomic"
)

// countingReadCloser wraps a stream body and adds every byte read to a
// shared counter.
type countingReadCloser struct {
	rc      io.ReadCloser
	counter *atomic.Int64
}

func (c *countingReadCloser) Read(p []byte) (n int, err error) {
	n, err = c.rc.Read(p)
	if n > 0 {
		c.counter.Add(int64(n))
	}
	return
}

func (c *countingReadCloser) Close() error {
	return c.rc.Close()
}
