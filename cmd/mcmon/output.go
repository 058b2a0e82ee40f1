package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"mcmon/internal/daemon"
	"mcmon/internal/status"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func checkOutputFormat(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// writeStructured renders v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return checkOutputFormat(format)
	}
}

func printSnapshot(w io.Writer, snap status.Snapshot, format string) error {
	if format != outputText {
		return writeStructured(w, format, snap)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeSnapshotRows(tw, snap)
	fmt.Fprintf(tw, "Updated:\t%s\n", lastUpdated(snap.UpdatedAt))
	return tw.Flush()
}

func writeSnapshotRows(tw io.Writer, snap status.Snapshot) {
	fmt.Fprintf(tw, "Server:\t%s\n", runningWord(snap.Server.Running, "running", "stopped"))
	fmt.Fprintf(tw, "Type:\t%s\n", orDash(snap.Server.Type))
	fmt.Fprintf(tw, "Version:\t%s\n", orDash(snap.Server.Version))
	fmt.Fprintf(tw, "Memory:\t%s\n", orDash(snap.Server.Memory))
	fmt.Fprintf(tw, "Players:\t%s\n", players(snap.Server.Players))
	fmt.Fprintf(tw, "Tunnel:\t%s\n", runningWord(snap.Tunnel.Running, "connected", "disconnected"))
	fmt.Fprintf(tw, "Mode:\t%s\n", orDash(snap.Tunnel.Mode))
	fmt.Fprintf(tw, "URL:\t%s\n", orDash(snap.Tunnel.URL))
}

func printWatchStatus(w io.Writer, st daemon.WatchStatus, format string) error {
	if format != outputText {
		return writeStructured(w, format, st)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Watcher:\trunning (PID %d)\n", st.PID)
	fmt.Fprintf(tw, "API:\t%s\n", st.BaseURL)
	fmt.Fprintf(tw, "Started:\t%s\n", humanize.Time(st.StartTime))
	fmt.Fprintf(tw, "Uptime:\t%s\n", time.Duration(st.Uptime)*time.Second)
	fmt.Fprintf(tw, "Log stream:\t%s\n", st.Stream)
	if st.Snapshot.Known() {
		writeSnapshotRows(tw, st.Snapshot)
	}
	fmt.Fprintf(tw, "Updated:\t%s\n", lastUpdated(st.Snapshot.UpdatedAt))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(st.Logs) > 0 {
		fmt.Fprintln(w, "\nRecent logs:")
		for _, r := range st.Logs {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}
	return nil
}

func players(s string) string {
	if used, limit, ok := status.ParsePlayers(s); ok && limit > 0 {
		return fmt.Sprintf("%d/%d (%d%%)", used, limit, used*100/limit)
	}
	return orDash(s)
}

func lastUpdated(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func runningWord(running bool, yes, no string) string {
	if running {
		return yes
	}
	return no
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
