package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mcmon/internal/daemon"
	bgdaemon "mcmon/pkg/daemon"
)

const queryTimeout = 3 * time.Second

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background watcher",
		Long: `Runs "mcmon watch" in the background. Its log lines go to
~/.mcmon.log and its state can be read with "mcmon daemon status".`,
	}
	cmd.AddCommand(newDaemonStartCmd(), newDaemonStopCmd(), newDaemonStatusCmd())
	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the background watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Fail here rather than in the detached child.
			if _, err := loadConfig(); err != nil {
				return err
			}
			pid, err := bgdaemon.Start(bgdaemon.DefaultPidFile(), bgdaemon.DefaultLogFile(), watcherArgs())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watcher started (PID %d), logging to %s\n", pid, bgdaemon.DefaultLogFile())
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := bgdaemon.Stop(bgdaemon.DefaultPidFile())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watcher stopped (PID %d)\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the background watcher currently sees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonStatus(cmd.Context(), cmd.OutOrStdout(), bgdaemon.DefaultPidFile(), bgdaemon.DefaultSocketPath(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")
	return cmd
}

func runDaemonStatus(ctx context.Context, out io.Writer, pidFile, socketPath, format string) error {
	if err := checkOutputFormat(format); err != nil {
		return err
	}

	running, pid := bgdaemon.Status(pidFile)
	if !running {
		fmt.Fprintln(out, "Watcher is not running")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	st, err := daemon.Query(ctx, socketPath)
	if errors.Is(err, daemon.ErrNoWatcher) {
		return fmt.Errorf("watcher (PID %d) is not answering on %s: %w", pid, socketPath, err)
	}
	if err != nil {
		return err
	}
	return printWatchStatus(out, st, format)
}

// watcherArgs is the command line for the detached child. Persistent flags
// are forwarded so it sees the same configuration.
func watcherArgs() []string {
	args := []string{"watch", "--no-tui"}
	if cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}
	if apiURL != "" {
		args = append(args, "--url", apiURL)
	}
	if debug {
		args = append(args, "--debug")
	}
	return args
}
