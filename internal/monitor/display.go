package monitor

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"meshscope/internal/codec"
)

var (
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	nodeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var eventIcons = map[string]string{
	"NEIGHBOR_ADDED":   "[+]",
	"NEIGHBOR_REMOVED": "[-]",
	"BIDIR_LINK":       "<->",
	"HOP_CHANGE":       "[~]",
	"GW_RX_DATA":       "[v]",
	"CMD_EXECUTED":     "[!]",
	"RSSI_LOW":         "[w]",
	"LATENCY":          "[t]",
	"NTP_SYNC":         "[s]",
}

const latencyDisplayThresholdMs = 500.0

// displayFilter decides which records print to the console. High volume
// types are suppressed so the live feed stays readable.
type displayFilter struct {
	latencyCount int
}

func (f *displayFilter) keep(rec codec.Record, latencyMs float64, hasLatency bool) bool {
	switch rec.Type {
	case "PDR_NODE", "PKT_RX":
		return false
	case "LATENCY":
		f.latencyCount++
		if hasLatency && latencyMs > latencyDisplayThresholdMs {
			return true
		}
		return f.latencyCount%10 == 0
	}
	return true
}

// formatRecord renders one record as a colorized console line.
func formatRecord(rec codec.Record, relS float64) string {
	icon, ok := eventIcons[rec.Type]
	if !ok {
		icon = "[?]"
	}
	style := detailStyle
	switch rec.Type {
	case "NEIGHBOR_REMOVED", "RSSI_LOW":
		style = warnStyle
	case "NEIGHBOR_ADDED", "BIDIR_LINK":
		style = successStyle
	}
	return fmt.Sprintf("%s %s %s %s %s",
		timeStyle.Render(fmt.Sprintf("[%8.1fs]", relS)),
		icon,
		nodeStyle.Render(fmt.Sprintf("Node%-3d", rec.NodeID)),
		rec.Type,
		style.Render(rec.Details))
}

func formatError(msg string) string {
	return errStyle.Render(msg)
}
