package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mcmon/pkg/logging"
)

// DefaultUpdateInterval is how often a connected client receives a fresh
// status message.
const DefaultUpdateInterval = 500 * time.Millisecond

// ErrNoWatcher is returned by Query when nothing is listening on the socket.
var ErrNoWatcher = errors.New("no background watcher is listening")

// StatusSource supplies the status sent to socket clients.
type StatusSource interface {
	Status() WatchStatus
}

// Server answers status queries from other mcmon processes over a unix
// socket.
type Server struct {
	socketPath string
	source     StatusSource
	interval   time.Duration

	listener net.Listener
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// NewServer creates a server for socketPath. Nothing listens until Listen.
func NewServer(socketPath string, source StatusSource) *Server {
	return &Server{
		socketPath: socketPath,
		source:     source,
		interval:   DefaultUpdateInterval,
		done:       make(chan struct{}),
	}
}

// Listen creates the socket, replacing a stale one left by a crashed
// watcher.
func (s *Server) Listen() error {
	os.Remove(s.socketPath)

	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("IPC listener failed: %w", err)
	}
	s.listener = listener

	// Make socket accessible to user only
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		logging.Warn("ipc", "failed to set socket permissions: %v", err)
	}
	logging.Info("ipc", "listening on %s", s.socketPath)
	return nil
}

// Serve accepts clients until Close. It returns nil after Close.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("IPC server is not listening")
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("IPC accept failed: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleClient(conn)
		}()
	}
}

// Close stops accepting, disconnects clients and removes the socket file.
func (s *Server) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			err = s.listener.Close()
		}
		s.wg.Wait()
		if rmErr := os.Remove(s.socketPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.Warn("ipc", "failed to remove socket file: %v", rmErr)
		}
	})
	return err
}

func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()

	encoder := json.NewEncoder(conn)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		msg := Message{Type: MessageStatus}
		data, err := json.Marshal(s.source.Status())
		if err != nil {
			logging.Error("ipc", err, "failed to encode status")
			msg.Type = MessageError
			data, _ = json.Marshal(err.Error())
		}
		msg.Data = data
		if err := encoder.Encode(msg); err != nil {
			logging.Debug("ipc", "client went away: %v", err)
			return
		}

		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// Query reads one status message from the watcher listening on socketPath.
func Query(ctx context.Context, socketPath string) (WatchStatus, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return WatchStatus{}, fmt.Errorf("%w: %v", ErrNoWatcher, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(5 * time.Second)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return WatchStatus{}, err
	}

	var msg Message
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		return WatchStatus{}, fmt.Errorf("failed to read status: %w", err)
	}

	switch msg.Type {
	case MessageStatus:
	case MessageError:
		var text string
		_ = json.Unmarshal(msg.Data, &text)
		return WatchStatus{}, fmt.Errorf("watcher error: %s", text)
	default:
		return WatchStatus{}, fmt.Errorf("unexpected message type %q", msg.Type)
	}

	var st WatchStatus
	if err := json.Unmarshal(msg.Data, &st); err != nil {
		return WatchStatus{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return st, nil
}
