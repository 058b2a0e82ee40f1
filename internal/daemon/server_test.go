package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmon/internal/api"
	"mcmon/internal/engine"
	"mcmon/internal/logbuf"
	"mcmon/internal/status"
	"mcmon/internal/stream"
)

// socketPath keeps the path short; unix socket paths are limited to about
// a hundred bytes.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "mcmon")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "w.sock")
}

func logEvent(msg string) engine.Event {
	return engine.LogAppended{Change: logbuf.Change{Inserted: logbuf.Record{Timestamp: "12:00:00", Message: msg, Level: logbuf.LevelInfo}}}
}

func TestState_Apply(t *testing.T) {
	st := NewState("http://localhost:7860/api", 3)

	for _, m := range []string{"a", "b", "c", "d"} {
		st.Apply(logEvent(m))
	}
	st.Apply(engine.StreamStateChanged{State: stream.Connected})
	st.Apply(engine.ControlsChanged{Controls: status.Controls{StopEnabled: true}})
	st.Apply(engine.StatusReplaced{Snapshot: status.Snapshot{Server: api.ServerStatus{Running: true, Players: "1/10"}}})

	got := st.Status()
	assert.Equal(t, os.Getpid(), got.PID)
	assert.Equal(t, "http://localhost:7860/api", got.BaseURL)
	assert.Equal(t, "connected", got.Stream)
	assert.True(t, got.Controls.StopEnabled)
	assert.True(t, got.Snapshot.Server.Running)

	var msgs []string
	for _, r := range got.Logs {
		msgs = append(msgs, r.Message)
	}
	assert.Equal(t, []string{"b", "c", "d"}, msgs, "only the newest records are kept")

	st.Apply(engine.LogsCleared{})
	assert.Empty(t, st.Status().Logs)
}

func TestState_StatusIsACopy(t *testing.T) {
	st := NewState("", 0)
	st.Apply(logEvent("one"))

	got := st.Status()
	got.Logs[0].Message = "changed"
	assert.Equal(t, "one", st.Status().Logs[0].Message)
}

func TestServer_Query(t *testing.T) {
	path := socketPath(t)
	st := NewState("http://mc.local/api", 0)
	st.Apply(logEvent("hello"))
	st.Apply(engine.StreamStateChanged{State: stream.Connecting})

	srv := NewServer(path, st)
	require.NoError(t, srv.Listen())
	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := Query(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "http://mc.local/api", got.BaseURL)
	assert.Equal(t, "connecting", got.Stream)
	require.Len(t, got.Logs, 1)
	assert.Equal(t, "hello", got.Logs[0].Message)

	require.NoError(t, srv.Close())
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "socket file is removed")
}

func TestQuery_NoWatcher(t *testing.T) {
	_, err := Query(context.Background(), socketPath(t))
	assert.ErrorIs(t, err, ErrNoWatcher)
}

func TestServer_ReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0600))

	srv := NewServer(path, NewState("", 0))
	require.NoError(t, srv.Listen())
	go srv.Serve()
	defer srv.Close()

	_, err := Query(context.Background(), path)
	assert.NoError(t, err)
}
