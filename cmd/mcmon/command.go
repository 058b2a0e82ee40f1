package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mcmon/internal/status"
	"mcmon/pkg/logging"
)

func newCommandCmd(c status.Command) *cobra.Command {
	return &cobra.Command{
		Use:   c.String(),
		Short: fmt.Sprintf("Send the %s command to the server", c),
		Long: fmt.Sprintf(`Fetches the current status and sends the %s command unless it would
not change anything. The command is sent once and never retried.`, c),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runCommand(cmd.Context(), cmd.OutOrStdout(), newClient(cfg), c)
		},
	}
}

// runCommand applies the same local guard as the watcher before sending.
// A reply with success set to false is printed and reported as an error.
func runCommand(ctx context.Context, out io.Writer, client status.Client, c status.Command) error {
	snap, err := fetchSnapshot(ctx, client)
	if err != nil {
		return err
	}
	if err := status.Guard(snap, c); err != nil {
		return err
	}

	logging.Info("command", "sending %s", c)
	ack, err := status.Issue(context.WithoutCancel(ctx), client, c)
	if err != nil {
		return fmt.Errorf("%s command failed: %w", c, err)
	}

	msg := status.AckMessage(c, ack)
	if ack.Rejected() {
		return fmt.Errorf("server refused %s command: %s", c, msg)
	}
	fmt.Fprintln(out, msg)
	return nil
}
