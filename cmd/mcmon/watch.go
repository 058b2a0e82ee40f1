package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mcmon/internal/api"
	"mcmon/internal/config"
	"mcmon/internal/daemon"
	"mcmon/internal/engine"
	"mcmon/internal/logbuf"
	"mcmon/internal/tui"
	bgdaemon "mcmon/pkg/daemon"
	"mcmon/pkg/logging"
)

type watchOptions struct {
	noTUI    bool
	setup    bool
	isDaemon bool
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow server status and the live log stream",
		Long: `Polls server and tunnel status and follows the server's log stream.
Runs the interactive dashboard when stdout is a terminal; otherwise, or with
--no-tui, log lines are printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "print log lines instead of running the dashboard")
	cmd.Flags().BoolVar(&opts.setup, "setup", false, "edit the API URL and poll interval before starting")
	cmd.Flags().BoolVar(&opts.isDaemon, strings.TrimPrefix(bgdaemon.Flag, "--"), false, "run as the background watcher")
	_ = cmd.Flags().MarkHidden(strings.TrimPrefix(bgdaemon.Flag, "--"))
	return cmd
}

func runWatch(ctx context.Context, out io.Writer, opts *watchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if opts.setup && !opts.isDaemon {
		if cfg, err = runSetup(out, cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newClient(cfg)
	eng := engine.New(cfg, client)

	if opts.isDaemon {
		return watchDaemon(ctx, out, cfg, eng)
	}
	if opts.noTUI || !term.IsTerminal(int(os.Stdout.Fd())) {
		return watchHeadless(ctx, out, eng, nil)
	}
	return watchTUI(ctx, cfg, client, eng)
}

func runSetup(out io.Writer, cfg config.Config) (config.Config, error) {
	res, err := tui.RunSetup(tui.SetupResult{BaseURL: cfg.API.BaseURL, PollInterval: cfg.Poll.Interval})
	if err != nil {
		return cfg, err
	}

	cfg.API.BaseURL = res.BaseURL
	if res.PollInterval > 0 {
		cfg.Poll.Interval = res.PollInterval
	}
	path, err := config.SaveUserSettings(res.BaseURL, res.PollInterval)
	if err != nil {
		return cfg, fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Fprintf(out, "Saved settings to %s\n", path)
	return cfg, nil
}

func watchTUI(ctx context.Context, cfg config.Config, client *api.Client, eng *engine.Engine) error {
	tui.ApplyColorMode(cfg.UI.ColorMode)

	// The alternate screen owns the terminal, so diagnostics go to a file.
	var diag io.Writer
	if debug {
		if f, err := openDebugLog(); err == nil {
			defer f.Close()
			diag = f
		}
	}
	logging.InitForTUI(logLevel(logging.LevelInfo), diag)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	engErr := make(chan error, 1)
	go func() { engErr <- eng.Run(ctx) }()

	err := tui.Run(eng, tui.Options{
		BaseURL:         cfg.API.BaseURL,
		Capacity:        cfg.Logs.Capacity,
		ScrollThreshold: cfg.Logs.Threshold(),
		BytesStreamed:   client.BytesStreamed,
	})
	cancel()
	if runErr := <-engErr; err == nil {
		err = runErr
	}
	return err
}

// watchHeadless prints every operator log record until ctx is cancelled.
// When state is not nil every event is folded into it as well.
func watchHeadless(ctx context.Context, out io.Writer, eng *engine.Engine, state *daemon.State) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	engErr := make(chan error, 1)
	go func() { engErr <- eng.Run(ctx) }()

	for ev := range eng.Events() {
		if state != nil {
			state.Apply(ev)
		}
		if a, ok := ev.(engine.LogAppended); ok {
			if _, err := fmt.Fprintln(out, formatHeadless(a.Change.Inserted)); err != nil {
				cancel()
			}
		}
	}
	return <-engErr
}

// watchDaemon is the re-executed background watcher: JSON diagnostics, a PID
// file and a status socket for "mcmon daemon status".
func watchDaemon(ctx context.Context, out io.Writer, cfg config.Config, eng *engine.Engine) error {
	logging.InitJSON(logLevel(logging.LevelInfo), os.Stderr)

	pidFile := bgdaemon.DefaultPidFile()
	if err := bgdaemon.WritePid(pidFile); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer bgdaemon.RemovePid(pidFile)

	state := daemon.NewState(cfg.API.BaseURL, daemon.DefaultRecentLogs)
	srv := daemon.NewServer(bgdaemon.DefaultSocketPath(), state)
	if err := srv.Listen(); err != nil {
		return err
	}
	defer srv.Close()
	go func() {
		if err := srv.Serve(); err != nil {
			logging.Error("ipc", err, "status socket stopped")
		}
	}()

	logging.Info("daemon", "watching %s (PID %d)", cfg.API.BaseURL, os.Getpid())
	err := watchHeadless(ctx, out, eng, state)
	logging.Info("daemon", "stopped")
	return err
}

// formatHeadless renders a record as "[timestamp] LEVEL message".
func formatHeadless(r logbuf.Record) string {
	return fmt.Sprintf("[%s] %s %s", r.Timestamp, strings.ToUpper(string(r.Level)), r.Message)
}

func openDebugLog() (*os.File, error) {
	dir, err := config.GetUserConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
