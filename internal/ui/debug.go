package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/docwatch/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing browse stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Browse Stats"))
	lines = append(lines, fmt.Sprintf("  Loads:      %d done, %d refused",
		stats[otel.KindLoadMore], stats[otel.KindLoadSkip]))
	lines = append(lines, fmt.Sprintf("  Resets:     %d (%d filter, %d sort)",
		stats[otel.KindReset], stats[otel.KindFilter], stats[otel.KindSort]))
	lines = append(lines, fmt.Sprintf("  Layout:     %d tab switches, %d resizes",
		stats[otel.KindTab], stats[otel.KindResize]))
	lines = append(lines, fmt.Sprintf("  Problems:   %d date fallbacks, %d missing groups",
		stats[otel.KindDateFallback], stats[otel.KindNoGroup]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-20s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Group != "" {
			line += "  " + truncateRunes(e.Group, 12)
		}
		if e.Count != 0 || e.Total != 0 {
			line += fmt.Sprintf("  %d/%d", e.Count, e.Total)
		}
		if e.Query != "" {
			line += fmt.Sprintf("  q=%q", truncateRunes(e.Query, 16))
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 30)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
