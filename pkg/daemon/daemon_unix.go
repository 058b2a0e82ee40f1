//go:build !windows

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Start re-executes the current binary with args plus Flag in the
// background and returns the child's PID. The child writes its own PID file.
func Start(pidFile string, logFile string, args []string) (int, error) {
	if running, pid := IsRunning(pidFile); running {
		return 0, fmt.Errorf("%w: PID %d", ErrAlreadyRunning, pid)
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(executable, daemonArgs(args)...)

	logFd, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFd.Close()

	cmd.Stdout = logFd
	cmd.Stderr = logFd
	cmd.Stdin = nil

	// New session: detach from the controlling terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	return cmd.Process.Pid, nil
}

// Stop asks the daemon to shut down. The daemon removes its PID file on
// exit.
func Stop(pidFile string) (int, error) {
	running, pid := IsRunning(pidFile)
	if !running {
		return 0, ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return 0, fmt.Errorf("failed to send signal: %w", err)
	}
	return pid, nil
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// FindProcess always succeeds on Unix; signal 0 probes for existence.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}
