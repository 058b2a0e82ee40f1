package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"mcmon/internal/logbuf"
	"mcmon/pkg/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultReconnectDelay is the fixed wait between a failure and the next
// connection attempt.
const DefaultReconnectDelay = 5 * time.Second

// ErrStreamClosed is reported when the server ends the event stream.
var ErrStreamClosed = errors.New("log stream closed by server")

// MalformedEventError is an event whose payload is not a log record.
type MalformedEventError struct {
	Data string
	Err  error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed log event: %v", e.Err)
}

func (e *MalformedEventError) Unwrap() error { return e.Err }

// State of the subscription.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Scheduler runs callbacks on the goroutine that owns the consumer.
type Scheduler interface {
	Submit(f func()) bool
	Call(ctx context.Context, f func()) error
	AfterFunc(d time.Duration, f func()) *time.Timer
}

// Opener opens the event stream. The returned body is closed by the
// consumer.
type Opener interface {
	OpenLogStream(ctx context.Context) (io.ReadCloser, error)
}

// Options configures a Consumer.
type Options struct {
	ReconnectDelay time.Duration
	// OnStateChange is called from a scheduler task on every transition.
	OnStateChange func(State)
}

// Consumer keeps exactly one subscription to the log stream alive and feeds
// decoded records into a buffer. After any failure it waits a fixed delay
// and tries again, forever.
//
// Every method must be called from a task of the consumer's scheduler.
type Consumer struct {
	sched  Scheduler
	opener Opener
	buf    *logbuf.Buffer
	delay  time.Duration
	notify func(State)
	now    func() time.Time

	parent  context.Context
	state   State
	gen     uint64 // identifies the current subscription attempt
	running bool

	cancel context.CancelFunc
	body   io.ReadCloser
	timer  *time.Timer
}

// NewConsumer creates a disconnected consumer.
func NewConsumer(sched Scheduler, opener Opener, buf *logbuf.Buffer, opts Options) *Consumer {
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	notify := opts.OnStateChange
	if notify == nil {
		notify = func(State) {}
	}
	return &Consumer{
		sched:  sched,
		opener: opener,
		buf:    buf,
		delay:  delay,
		notify: notify,
		now:    time.Now,
	}
}

// State returns the current subscription state.
func (c *Consumer) State() State {
	return c.state
}

// Start opens the first subscription. Connections are bound to ctx. Calling
// Start on a running consumer does nothing.
func (c *Consumer) Start(ctx context.Context) {
	if c.running {
		return
	}
	c.running = true
	c.parent = ctx
	c.buf.Log(logbuf.LevelInfo, "starting log stream")
	c.connect()
}

// Stop releases the subscription and cancels any pending reconnect.
func (c *Consumer) Stop() {
	if !c.running {
		return
	}
	c.running = false
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.release()
	c.setState(Disconnected)
}

func (c *Consumer) connect() {
	c.gen++
	gen := c.gen

	ctx, cancel := context.WithCancel(c.parent)
	c.cancel = cancel
	c.setState(Connecting)
	logging.Debug("stream", "opening log stream (attempt %d)", gen)

	go func() {
		body, err := c.opener.OpenLogStream(ctx)
		if !c.sched.Submit(func() { c.opened(ctx, gen, body, err) }) && body != nil {
			body.Close()
		}
	}()
}

func (c *Consumer) opened(ctx context.Context, gen uint64, body io.ReadCloser, err error) {
	if gen != c.gen || c.state != Connecting {
		if body != nil {
			body.Close()
		}
		return
	}
	if err != nil {
		c.fail(gen, err)
		return
	}

	c.body = body
	c.setState(Connected)
	c.buf.Log(logbuf.LevelSuccess, "log stream connected")

	go c.read(ctx, gen, body)
}

// read runs on its own goroutine. Call keeps records in stream order and
// stops reading while the scheduler is behind.
func (c *Consumer) read(ctx context.Context, gen uint64, body io.Reader) {
	dec := NewDecoder(body)
	for {
		ev, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrStreamClosed
			}
			c.sched.Submit(func() { c.fail(gen, err) })
			return
		}
		if err := c.sched.Call(ctx, func() { c.handle(gen, ev) }); err != nil {
			return
		}
	}
}

func (c *Consumer) handle(gen uint64, ev Event) {
	if gen != c.gen || c.state != Connected {
		return
	}
	if ev.Type != "message" {
		logging.Debug("stream", "ignoring %q event", ev.Type)
		return
	}

	rec, err := c.decode(ev.Data)
	if err != nil {
		logging.Warn("stream", "%v", err)
		c.buf.Log(logbuf.LevelError, "dropped "+err.Error())
		return
	}
	c.buf.Append(rec)
}

func (c *Consumer) decode(data string) (logbuf.Record, error) {
	var p struct {
		Timestamp string  `json:"timestamp"`
		Message   *string `json:"message"`
		Level     string  `json:"level"`
	}
	if err := json.UnmarshalFromString(data, &p); err != nil {
		return logbuf.Record{}, &MalformedEventError{Data: data, Err: err}
	}
	if p.Message == nil {
		return logbuf.Record{}, &MalformedEventError{Data: data, Err: errors.New(`missing field "message"`)}
	}

	level, err := logbuf.ParseLevel(p.Level)
	if err != nil {
		logging.Debug("stream", "%v, using info", err)
	}
	ts := p.Timestamp
	if ts == "" {
		ts = c.now().Format(logbuf.TimestampFormat)
	}
	return logbuf.Record{Timestamp: ts, Message: *p.Message, Level: level}, nil
}

// fail tears down the subscription of generation gen and schedules the one
// reconnect. Reports for an already failed or replaced subscription are
// ignored.
func (c *Consumer) fail(gen uint64, err error) {
	if gen != c.gen || c.state == Disconnected {
		return
	}
	c.release()
	c.setState(Disconnected)

	logging.Warn("stream", "log stream failed: %v", err)
	c.buf.Log(logbuf.LevelError, fmt.Sprintf("log stream error: %v; reconnecting in %s", err, c.delay))

	c.timer = c.sched.AfterFunc(c.delay, func() { c.reconnect(gen) })
}

func (c *Consumer) reconnect(gen uint64) {
	if gen != c.gen || c.state != Disconnected || !c.running {
		return
	}
	c.timer = nil
	c.buf.Log(logbuf.LevelInfo, "reconnecting log stream")
	c.connect()
}

func (c *Consumer) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.body != nil {
		c.body.Close()
		c.body = nil
	}
}

func (c *Consumer) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.notify(s)
}
