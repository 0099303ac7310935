package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/docwatch/internal/browse"
	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/layout"
)

// excerptLines caps the excerpt on desktop cards.
const excerptLines = 3

// CardRenderer returns the pure card renderer for a viewport profile.
// Compact (mobile) cards drop the excerpt.
func CardRenderer(p layout.Profile) browse.Renderer {
	width := p.CardWidth()
	inner := width - 2
	compact := p.Compact()

	titleStyle := CardTitle.MaxWidth(inner)
	metaStyle := CardMeta.MaxWidth(inner)
	excerptStyle := CardExcerpt.Width(inner).MaxHeight(excerptLines)
	box := CardBox.Width(width)

	return func(c card.Card) string {
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}

		meta := c.DisplayDate()
		if c.Type != "" {
			meta += " · " + c.Type
		}
		metaLine := metaStyle.Render(meta)
		if c.HasAnalysis {
			metaLine += " " + AnalysisBadge.Render("✦ analysed")
		}

		lines := []string{titleStyle.Render(title), metaLine}
		if !compact && c.Markup != "" {
			lines = append(lines, excerptStyle.Render(c.Markup))
		}
		return box.Render(strings.Join(lines, "\n"))
	}
}

// groupLayout is the flattened, line-addressed rendering of one group.
type groupLayout struct {
	lines  []string
	starts []int // first line of each node
	ends   []int // one past the last line of each node
	// control is the line of the status affordance (load-more, complete
	// marker or placeholder).
	control int
}

// span returns the line range of node i, where i == len(nodes) addresses
// the status control.
func (gl groupLayout) span(i int) (start, end int) {
	if i < len(gl.starts) {
		return gl.starts[i], gl.ends[i]
	}
	return gl.control, gl.control + 1
}

// layoutGroup renders the loader's nodes with the selection gutter, then
// the status affordance. loading shows the spinner frame in place of the
// load-more label.
func layoutGroup(l *browse.Loader, selected int, loading bool, spin string) groupLayout {
	var gl groupLayout
	nodes := l.Nodes()
	gutterOn := SelectedGutter.Render("▌") + " "
	gutterOff := "  "

	for i, n := range nodes {
		gl.starts = append(gl.starts, len(gl.lines))
		gutter := gutterOff
		if i == selected {
			gutter = gutterOn
		}
		for _, line := range strings.Split(n.View, "\n") {
			gl.lines = append(gl.lines, gutter+line)
		}
		gl.ends = append(gl.ends, len(gl.lines))
	}

	gl.control = len(gl.lines)
	st := l.Status()
	switch st.Kind {
	case browse.StatusLoadMore:
		label := st.Label
		style := LoadMoreButton
		if selected == len(nodes) {
			style = LoadMoreFocused
		}
		if loading {
			label = spin + " Loading…"
		}
		gl.lines = append(gl.lines, gutterOff+style.Render(label))
	case browse.StatusComplete:
		gl.lines = append(gl.lines, gutterOff+CompleteMarker.Render("— "+st.Label+" —"))
	case browse.StatusNoResults:
		gl.lines = append(gl.lines, gutterOff+HelpStyle.Padding(0, 2).Render(st.Label))
	}
	return gl
}

// scrollIntoView returns the offset that makes lines [start, end) visible
// while moving as little as possible. A span taller than the viewport is
// aligned to its top.
func scrollIntoView(offset, height, start, end int) int {
	if height < 1 {
		height = 1
	}
	switch {
	case start < offset:
		return start
	case end-start > height:
		return start
	case end > offset+height:
		return end - height
	}
	return offset
}

// clampOffset keeps offset inside [0, total-height].
func clampOffset(offset, height, total int) int {
	maxOff := total - height
	if offset > maxOff {
		offset = maxOff
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// fitWidth pads or cuts a rendered line to exactly width cells.
func fitWidth(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
