package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Flag is appended to the re-executed command line so the child knows it
// is the background process.
const Flag = "--daemon"

var (
	ErrAlreadyRunning = errors.New("daemon is already running")
	ErrNotRunning     = errors.New("daemon is not running")
)

// DefaultPidFile returns the default PID file path
func DefaultPidFile() string {
	return homeFile(".mcmon.pid")
}

// DefaultLogFile returns the default log file path
func DefaultLogFile() string {
	return homeFile(".mcmon.log")
}

// DefaultSocketPath returns where the background watcher answers status
// queries.
func DefaultSocketPath() string {
	return homeFile(".mcmon.sock")
}

func homeFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), strings.TrimPrefix(name, "."))
	}
	return filepath.Join(home, name)
}

// WritePid writes the current process PID to the pid file
func WritePid(pidFile string) error {
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReadPid reads the PID from the pid file
func ReadPid(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// RemovePid removes the pid file
func RemovePid(pidFile string) error {
	return os.Remove(pidFile)
}

// IsRunning checks if the daemon is already running. A PID file left behind
// by a dead process is removed.
func IsRunning(pidFile string) (bool, int) {
	pid, err := ReadPid(pidFile)
	if err != nil {
		return false, 0
	}

	if !isProcessRunning(pid) {
		os.Remove(pidFile)
		return false, 0
	}

	return true, pid
}

// Status returns the daemon status
func Status(pidFile string) (bool, int) {
	return IsRunning(pidFile)
}

func daemonArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	out = append(out, args...)
	return append(out, Flag)
}
