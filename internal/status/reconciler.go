package status

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mcmon/internal/api"
	"mcmon/internal/logbuf"
	"mcmon/pkg/logging"
)

// DefaultInterval is the time between scheduled reconciliations.
const DefaultInterval = 5 * time.Second

// Client is the part of the control API the reconciler needs.
type Client interface {
	FetchServerStatus(ctx context.Context) (api.ServerStatus, error)
	FetchTunnelStatus(ctx context.Context) (api.TunnelStatus, error)
	IssueStart(ctx context.Context) (api.Ack, error)
	IssueStop(ctx context.Context) (api.Ack, error)
}

// Scheduler runs callbacks on the goroutine that owns the reconciler.
type Scheduler interface {
	Submit(f func()) bool
}

// Options configures a Reconciler.
type Options struct {
	Interval time.Duration
	// Called from a scheduler task after every successful reconciliation.
	OnSnapshot func(Snapshot)
	// Called from a scheduler task whenever the controls may have changed.
	OnControls func(Controls)
}

// Fetch performs one reconciliation round trip: server and tunnel status,
// fetched concurrently. Both must succeed.
func Fetch(ctx context.Context, c Client) (api.ServerStatus, api.TunnelStatus, error) {
	var (
		server api.ServerStatus
		tunnel api.TunnelStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := c.FetchServerStatus(gctx)
		server = s
		return err
	})
	g.Go(func() error {
		t, err := c.FetchTunnelStatus(gctx)
		tunnel = t
		return err
	})
	if err := g.Wait(); err != nil {
		return api.ServerStatus{}, api.TunnelStatus{}, err
	}
	return server, tunnel, nil
}

// Reconciler periodically pulls server and tunnel state into a Model and
// issues start/stop commands without racing those updates.
//
// Ticks may overlap; whichever finishes last wins.
//
// Every method must be called from a task of the reconciler's scheduler.
type Reconciler struct {
	sched      Scheduler
	client     Client
	buf        *logbuf.Buffer
	model      *Model
	interval   time.Duration
	onSnapshot func(Snapshot)
	onControls func(Controls)
	now        func() time.Time
	newID      func() string

	ctx        context.Context
	stopTicker context.CancelFunc
	seq        uint64 // number of the most recently started tick
}

// NewReconciler creates a reconciler writing to a fresh Model.
func NewReconciler(sched Scheduler, client Client, buf *logbuf.Buffer, opts Options) *Reconciler {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Reconciler{
		sched:      sched,
		client:     client,
		buf:        buf,
		model:      NewModel(),
		interval:   interval,
		onSnapshot: opts.OnSnapshot,
		onControls: opts.OnControls,
		now:        time.Now,
		newID:      uuid.NewString,
		ctx:        context.Background(),
	}
	if r.onSnapshot == nil {
		r.onSnapshot = func(Snapshot) {}
	}
	if r.onControls == nil {
		r.onControls = func(Controls) {}
	}
	return r
}

// Model returns the model this reconciler writes.
func (r *Reconciler) Model() *Model {
	return r.model
}

// Start runs one reconciliation immediately and then one per interval until
// ctx is cancelled or Stop is called.
func (r *Reconciler) Start(ctx context.Context) {
	if r.stopTicker != nil {
		return
	}
	r.ctx = ctx
	tctx, cancel := context.WithCancel(ctx)
	r.stopTicker = cancel

	r.onControls(r.model.Controls())
	r.Tick()

	go func() {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-tctx.Done():
				return
			case <-t.C:
				if !r.sched.Submit(r.Tick) {
					return
				}
			}
		}
	}()
}

// Stop ends the periodic ticks. In-flight work still completes.
func (r *Reconciler) Stop() {
	if r.stopTicker != nil {
		r.stopTicker()
		r.stopTicker = nil
	}
}

// Tick starts one reconciliation without waiting for it.
func (r *Reconciler) Tick() {
	r.seq++
	tick := r.seq
	ctx := r.ctx
	logging.Debug("status", "reconciliation %d started", tick)

	go func() {
		server, tunnel, err := Fetch(ctx, r.client)
		r.sched.Submit(func() { r.apply(tick, server, tunnel, err) })
	}()
}

func (r *Reconciler) apply(tick uint64, server api.ServerStatus, tunnel api.TunnelStatus, err error) {
	if err != nil {
		logging.Warn("status", "reconciliation %d failed: %v", tick, err)
		r.buf.Log(logbuf.LevelError, fmt.Sprintf("failed to refresh status: %v", err))
		return
	}

	r.model.replace(tick, server, tunnel, r.now())
	r.onSnapshot(r.model.Snapshot())
	r.onControls(r.model.Controls())
}

// Issue sends cmd to the control API.
func Issue(ctx context.Context, c Client, cmd Command) (api.Ack, error) {
	if cmd == CommandStop {
		return c.IssueStop(ctx)
	}
	return c.IssueStart(ctx)
}

// AckMessage is the operator-facing text for a command reply.
func AckMessage(cmd Command, ack api.Ack) string {
	if ack.Message != "" {
		return ack.Message
	}
	return fmt.Sprintf("%s command accepted", cmd)
}

// IssueStart sends the start command unless it is redundant or already in
// flight. A non-nil error is a *UserError; the outcome of a sent command is
// reported through the log.
func (r *Reconciler) IssueStart() error {
	return r.issue(CommandStart)
}

// IssueStop is the stop counterpart of IssueStart.
func (r *Reconciler) IssueStop() error {
	return r.issue(CommandStop)
}

func (r *Reconciler) issue(cmd Command) error {
	if err := Guard(r.model.Snapshot(), cmd); err != nil {
		r.reject(err)
		return err
	}
	if _, pending := r.model.Pending(cmd); pending {
		err := &UserError{Command: cmd, Reason: fmt.Sprintf("a %s command is already in progress", cmd)}
		r.reject(err)
		return err
	}

	in := &Intent{ID: r.newID(), Command: cmd, IssuedAt: r.now()}
	r.model.addIntent(in)
	r.onControls(r.model.Controls())

	verb := "starting"
	if cmd == CommandStop {
		verb = "stopping"
	}
	r.buf.Log(logbuf.LevelInfo, verb+" server...")
	logging.Info("status", "%s command %s issued", cmd, in.ID)

	// Commands are never cancelled once sent.
	ctx := context.WithoutCancel(r.ctx)
	go func() {
		ack, err := Issue(ctx, r.client, cmd)
		r.sched.Submit(func() { r.acknowledged(cmd, in.ID, ack, err) })
	}()
	return nil
}

func (r *Reconciler) acknowledged(cmd Command, id string, ack api.Ack, err error) {
	if cur, ok := r.model.Pending(cmd); !ok || cur.ID != id {
		return
	}

	if err != nil {
		r.model.dropIntent(cmd)
		logging.Error("status", err, "%s command %s failed", cmd, id)
		r.buf.Log(logbuf.LevelError, fmt.Sprintf("%s command failed: %v", cmd, err))
		r.onControls(r.model.Controls())
		return
	}

	level := logbuf.LevelSuccess
	if ack.Rejected() {
		level = logbuf.LevelWarning
	}
	logging.Info("status", "%s command %s acknowledged (request %s)", cmd, id, ack.RequestID)
	r.buf.Log(level, AckMessage(cmd, ack))

	r.model.ackIntent(cmd, r.seq)
	r.Tick()
}

func (r *Reconciler) reject(err error) {
	logging.Debug("status", "%v", err)
	r.buf.Log(logbuf.LevelWarning, err.Error())
}
