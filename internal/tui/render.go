package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"mcmon/internal/logbuf"
	"mcmon/internal/status"
	"mcmon/internal/stream"
)

// renderLogLine formats a record for the viewport. Lines wider than
// maxWidth are cut so the viewport never wraps.
func renderLogLine(r logbuf.Record, maxWidth int) string {
	line := fmt.Sprintf("[%s] %s", r.Timestamp, r.Message)
	if maxWidth > 0 && runewidth.StringWidth(line) > maxWidth {
		line = runewidth.Truncate(line, maxWidth-1, "") + "…"
	}
	style, ok := levelStyles[r.Level]
	if !ok {
		style = levelStyles[logbuf.LevelInfo]
	}
	return style.Render(line)
}

func renderLogLines(records []logbuf.Record, maxWidth int) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = renderLogLine(r, maxWidth)
	}
	return out
}

func field(label, value string) string {
	return labelStyle.Render(label) + " " + value
}

func runningText(running bool, up, down string) string {
	if running {
		return upStyle.Render(up)
	}
	return downStyle.Render(down)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderServerBox(s status.Snapshot) string {
	players := orDash(s.Server.Players)
	if used, limit, ok := status.ParsePlayers(s.Server.Players); ok && limit > 0 {
		players = fmt.Sprintf("%d/%d (%d%%)", used, limit, used*100/limit)
	}
	lines := []string{
		field("Server: ", runningText(s.Server.Running, "Running", "Stopped")),
		field("Type:   ", orDash(s.Server.Type)),
		field("Version:", orDash(s.Server.Version)),
		field("Memory: ", orDash(s.Server.Memory)),
		field("Players:", players),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderTunnelBox(s status.Snapshot) string {
	lines := []string{
		field("Tunnel:", runningText(s.Tunnel.Running, "Connected", "Disconnected")),
		field("Mode:  ", orDash(s.Tunnel.Mode)),
		field("URL:   ", orDash(s.Tunnel.URL)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderStreamBox(state stream.State, spin string, received int64, updated time.Time, autoScroll bool) string {
	var stateText string
	switch state {
	case stream.Connected:
		stateText = upStyle.Render("Connected")
	case stream.Connecting:
		stateText = lipgloss.NewStyle().Foreground(warningColor).Render(spin + "Connecting")
	default:
		stateText = lipgloss.NewStyle().Foreground(errorColor).Render("Disconnected")
	}

	lastUpdate := "never"
	if !updated.IsZero() {
		lastUpdate = humanize.Time(updated)
	}
	follow := "off"
	if autoScroll {
		follow = "on"
	}

	lines := []string{
		field("Log stream: ", stateText),
		field("Received:   ", humanize.Bytes(uint64(received))),
		field("Updated:    ", lastUpdate),
		field("Auto-scroll:", follow),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderControls(c status.Controls, spin string) string {
	render := func(label string, enabled, pending bool) string {
		switch {
		case pending:
			return subtleStyle.Render(spin + label + "…")
		case enabled:
			return enabledControlStyle.Render(label)
		default:
			return disabledControlStyle.Render(label)
		}
	}
	return render("[s] start", c.StartEnabled, c.StartPending) + "  " + render("[x] stop", c.StopEnabled, c.StopPending)
}
