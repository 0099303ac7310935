package layout

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ResizeMsg is delivered when a debounced resize settles. Only the message
// whose Gen matches the debouncer's latest generation should be acted on.
type ResizeMsg struct {
	Gen    uint64
	Width  int
	Height int
}

// Debouncer coalesces bursts of resize events: every Trigger supersedes the
// previous one, and only the last fires.
type Debouncer struct {
	window time.Duration
	gen    uint64
}

// NewDebouncer returns a trailing debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger records a resize and returns the command that delivers its
// ResizeMsg after the window.
func (d *Debouncer) Trigger(width, height int) tea.Cmd {
	d.gen++
	msg := ResizeMsg{Gen: d.gen, Width: width, Height: height}
	if d.window <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(d.window, func(time.Time) tea.Msg { return msg })
}

// Fire reports whether msg is from the most recent Trigger.
func (d *Debouncer) Fire(msg ResizeMsg) bool {
	return msg.Gen == d.gen
}

// Window returns the quiet window.
func (d *Debouncer) Window() time.Duration { return d.window }
