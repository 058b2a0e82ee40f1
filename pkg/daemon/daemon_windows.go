//go:build windows

package daemon

import (
	"fmt"
	"os"
	"os/exec"
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

	// No Setsid here; a process started without a console keeps running in
	// the background.

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	return cmd.Process.Pid, nil
}

// Stop terminates the daemon and removes its PID file.
func Stop(pidFile string) (int, error) {
	running, pid := IsRunning(pidFile)
	if !running {
		return 0, ErrNotRunning
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("failed to find process: %w", err)
	}

	// There is no SIGTERM on Windows.
	if err := process.Kill(); err != nil {
		return 0, fmt.Errorf("failed to kill process: %w", err)
	}

	os.Remove(pidFile)
	return pid, nil
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// A running process has no exit status yet, so Wait fails.
	_, err = process.Wait()
	return err != nil
}
