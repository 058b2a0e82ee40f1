package status

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mcmon/internal/api"
)

// Command is a lifecycle command the operator can issue.
type Command int

const (
	CommandStart Command = iota
	CommandStop
)

func (c Command) String() string {
	if c == CommandStop {
		return "stop"
	}
	return "start"
}

// Snapshot is the merged view of the last successful reconciliation.
type Snapshot struct {
	Server    api.ServerStatus `json:"server" yaml:"server"`
	Tunnel    api.TunnelStatus `json:"tunnel" yaml:"tunnel"`
	UpdatedAt time.Time        `json:"updatedAt" yaml:"updatedAt"` // zero until the first success
}

// Known reports whether any reconciliation has succeeded yet.
func (s Snapshot) Known() bool {
	return !s.UpdatedAt.IsZero()
}

// Controls says which commands the operator may issue right now.
type Controls struct {
	StartEnabled bool `json:"startEnabled" yaml:"startEnabled"`
	StopEnabled  bool `json:"stopEnabled" yaml:"stopEnabled"`
	StartPending bool `json:"startPending" yaml:"startPending"`
	StopPending  bool `json:"stopPending" yaml:"stopPending"`
}

// Intent is a command that has been issued but whose effect has not yet been
// observed by a reconciliation.
type Intent struct {
	ID       string
	Command  Command
	IssuedAt time.Time
	Acked    bool

	// Ticks numbered above this one started after the acknowledgement.
	resolveAfter uint64
}

// UserError is a command refused locally. It never reaches the network.
type UserError struct {
	Command Command
	Reason  string
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Command, e.Reason)
}

// Guard rejects commands that would not change anything given snap.
func Guard(snap Snapshot, cmd Command) error {
	switch {
	case cmd == CommandStart && snap.Server.Running:
		return &UserError{Command: cmd, Reason: "server is already running"}
	case cmd == CommandStop && !snap.Server.Running:
		return &UserError{Command: cmd, Reason: "server is not running"}
	}
	return nil
}

// Model is the single source of truth for server and tunnel state. It is
// written only by the Reconciler.
type Model struct {
	snap    Snapshot
	intents map[Command]*Intent
}

// NewModel returns an empty model: nothing known, server assumed stopped.
func NewModel() *Model {
	return &Model{intents: make(map[Command]*Intent)}
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() Snapshot {
	return m.snap
}

// Pending returns the outstanding intent for cmd, if any.
func (m *Model) Pending(cmd Command) (Intent, bool) {
	in, ok := m.intents[cmd]
	if !ok {
		return Intent{}, false
	}
	return *in, true
}

// Controls derives the enabled state of both commands.
func (m *Model) Controls() Controls {
	_, startPending := m.intents[CommandStart]
	_, stopPending := m.intents[CommandStop]
	running := m.snap.Server.Running
	return Controls{
		StartEnabled: !running && !startPending,
		StopEnabled:  running && !stopPending,
		StartPending: startPending,
		StopPending:  stopPending,
	}
}

// replace swaps in freshly fetched state wholesale and resolves every
// acknowledged intent that tick has observed.
func (m *Model) replace(tick uint64, server api.ServerStatus, tunnel api.TunnelStatus, at time.Time) {
	m.snap = Snapshot{Server: server, Tunnel: tunnel, UpdatedAt: at}
	for cmd, in := range m.intents {
		if in.Acked && tick > in.resolveAfter {
			delete(m.intents, cmd)
		}
	}
}

func (m *Model) addIntent(in *Intent) {
	m.intents[in.Command] = in
}

func (m *Model) ackIntent(cmd Command, tick uint64) {
	if in, ok := m.intents[cmd]; ok {
		in.Acked = true
		in.resolveAfter = tick
	}
}

func (m *Model) dropIntent(cmd Command) {
	delete(m.intents, cmd)
}

// ParsePlayers splits the "<used>/<max>" player count.
func ParsePlayers(s string) (used, limit int, ok bool) {
	u, l, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return 0, 0, false
	}
	used, err1 := strconv.Atoi(strings.TrimSpace(u))
	limit, err2 := strconv.Atoi(strings.TrimSpace(l))
	if err1 != nil || err2 != nil || used < 0 || limit < 0 {
		return 0, 0, false
	}
	return used, limit, true
}
