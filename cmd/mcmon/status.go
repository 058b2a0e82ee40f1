package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mcmon/internal/status"
)

func newStatusCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print server and tunnel status",
		Long: `Fetches server and tunnel status once and prints them. Use -o json or
-o yaml for machine readable output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")
	return cmd
}

func runStatus(ctx context.Context, out io.Writer, format string) error {
	if err := checkOutputFormat(format); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	snap, err := fetchSnapshot(ctx, newClient(cfg))
	if err != nil {
		return err
	}
	return printSnapshot(out, snap, format)
}

// fetchSnapshot runs one reconciliation outside the engine.
func fetchSnapshot(ctx context.Context, c status.Client) (status.Snapshot, error) {
	server, tunnel, err := status.Fetch(ctx, c)
	if err != nil {
		return status.Snapshot{}, fmt.Errorf("failed to refresh status: %w", err)
	}
	return status.Snapshot{Server: server, Tunnel: tunnel, UpdatedAt: time.Now()}, nil
}
