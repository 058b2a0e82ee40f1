package engine

import (
	"context"
	"errors"

	"mcmon/internal/config"
	"mcmon/internal/logbuf"
	"mcmon/internal/status"
	"mcmon/internal/stream"
	"mcmon/pkg/logging"
)

// eventBacklog is how many events may queue before the engine waits for the
// presentation to catch up.
const eventBacklog = 256

// Client is everything the engine needs from the control API.
type Client interface {
	status.Client
	stream.Opener
}

// Engine wires the log buffer, log stream consumer and status reconciler
// onto one scheduler and reports every change on Events.
type Engine struct {
	sched    *Scheduler
	buf      *logbuf.Buffer
	rec      *status.Reconciler
	consumer *stream.Consumer

	ctx    context.Context
	events chan Event
}

// New builds an engine from cfg. Nothing runs until Run is called.
func New(cfg config.Config, client Client) *Engine {
	e := &Engine{
		sched:  NewScheduler(),
		buf:    logbuf.New(cfg.Logs.Capacity),
		ctx:    context.Background(),
		events: make(chan Event, eventBacklog),
	}
	e.buf.SetObserver(e)

	e.rec = status.NewReconciler(e.sched, client, e.buf, status.Options{
		Interval:   cfg.Poll.Interval,
		OnSnapshot: func(s status.Snapshot) { e.emit(StatusReplaced{Snapshot: s}) },
		OnControls: func(c status.Controls) { e.emit(ControlsChanged{Controls: c}) },
	})
	e.consumer = stream.NewConsumer(e.sched, client, e.buf, stream.Options{
		ReconnectDelay: cfg.Stream.ReconnectDelay,
		OnStateChange:  func(s stream.State) { e.emit(StreamStateChanged{State: s}) },
	})
	return e
}

// Events delivers every change in order. It is closed when Run returns.
// The engine stalls while the channel is full, so it must be drained.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Run starts polling and streaming and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.ctx = ctx

	e.sched.Submit(func() {
		e.buf.Log(logbuf.LevelInfo, "initializing")
		e.rec.Start(ctx)
		e.consumer.Start(ctx)
		e.buf.Log(logbuf.LevelInfo, "initialization complete")
	})

	err := e.sched.Run(ctx)
	close(e.events)
	logging.Debug("engine", "stopped: %v", err)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Start requests the start command. Rejections are reported as log records.
func (e *Engine) Start() {
	e.sched.Submit(func() { _ = e.rec.IssueStart() })
}

// Stop requests the stop command.
func (e *Engine) Stop() {
	e.sched.Submit(func() { _ = e.rec.IssueStop() })
}

// RefreshNow runs a reconciliation without waiting for the next interval.
func (e *Engine) RefreshNow() {
	e.sched.Submit(func() {
		e.buf.Log(logbuf.LevelInfo, "refreshing status")
		e.rec.Tick()
	})
}

// ClearLogs empties the log buffer.
func (e *Engine) ClearLogs() {
	e.sched.Submit(e.buf.Clear)
}

// Note appends a locally generated record to the log.
func (e *Engine) Note(level logbuf.Level, message string) {
	e.sched.Submit(func() { e.buf.Log(level, message) })
}

// Records returns a copy of the log buffer, oldest first.
func (e *Engine) Records(ctx context.Context) ([]logbuf.Record, error) {
	var out []logbuf.Record
	err := e.sched.Call(ctx, func() { out = e.buf.Records() })
	return out, err
}

// RecordAppended implements logbuf.Observer.
func (e *Engine) RecordAppended(c logbuf.Change) {
	logging.Debug("log", "%s", c.Inserted)
	e.emit(LogAppended{Change: c})
}

// Cleared implements logbuf.Observer.
func (e *Engine) Cleared() {
	e.emit(LogsCleared{})
}

// emit runs on the scheduler goroutine.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
	}
}
