package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RequestIDHeader carries a per-command id so server logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// Client talks to the managed service's control API. Each call is exactly
// one round trip; retrying is the caller's business.
type Client struct {
	baseURL  string
	http     *http.Client
	stream   *http.Client
	streamed atomic.Int64

	newRequestID func() string
}

// NewClient creates a client for baseURL (e.g. "http://host:7860/api").
// timeout bounds each request/response call but not the log stream.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: timeout},
		stream:       &http.Client{},
		newRequestID: func() string { return uuid.NewString() },
	}
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BytesStreamed returns the number of log stream bytes received so far,
// across reconnects.
func (c *Client) BytesStreamed() int64 {
	return c.streamed.Load()
}

// FetchServerStatus performs GET /status.
func (c *Client) FetchServerStatus(ctx context.Context) (ServerStatus, error) {
	const op = "GET /status"
	var w serverStatusWire
	if err := c.getJSON(ctx, op, "/status", &w); err != nil {
		return ServerStatus{}, err
	}
	if w.Running == nil {
		return ServerStatus{}, &ProtocolError{Op: op, Err: errors.New(`missing field "running"`)}
	}
	return ServerStatus{
		Running: *w.Running,
		Type:    w.Type,
		Version: w.Version,
		Memory:  w.Memory,
		Players: w.Players,
	}, nil
}

// FetchTunnelStatus performs GET /tunnel.
func (c *Client) FetchTunnelStatus(ctx context.Context) (TunnelStatus, error) {
	const op = "GET /tunnel"
	var w tunnelStatusWire
	if err := c.getJSON(ctx, op, "/tunnel", &w); err != nil {
		return TunnelStatus{}, err
	}
	if w.Running == nil {
		return TunnelStatus{}, &ProtocolError{Op: op, Err: errors.New(`missing field "running"`)}
	}
	return TunnelStatus{Mode: w.Mode, Running: *w.Running, URL: w.URL}, nil
}

// IssueStart performs POST /start.
func (c *Client) IssueStart(ctx context.Context) (Ack, error) {
	return c.command(ctx, "/start")
}

// IssueStop performs POST /stop.
func (c *Client) IssueStop(ctx context.Context) (Ack, error) {
	return c.command(ctx, "/stop")
}

// OpenLogStream opens GET /logs/stream. The caller owns the returned body and
// must close it.
func (c *Client) OpenLogStream(ctx context.Context) (io.ReadCloser, error) {
	const op = "GET /logs/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/logs/stream", nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if err := checkStatus(op, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "text/event-stream" {
		resp.Body.Close()
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))}
	}

	return &countingReadCloser{rc: resp.Body, counter: &c.streamed}, nil
}

func (c *Client) command(ctx context.Context, path string) (Ack, error) {
	op := "POST " + path
	id := c.newRequestID()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return Ack{RequestID: id}, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, id)

	var ack Ack
	if err := c.do(req, op, &ack); err != nil {
		return Ack{RequestID: id}, err
	}
	ack.RequestID = id
	return ack, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A timeout while reading the body is still a transport failure.
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &NetworkError{Op: op, Err: err}
		}
		return &ProtocolError{Op: op, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProtocolError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}
