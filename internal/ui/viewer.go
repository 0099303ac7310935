package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/tabs"
	"github.com/abelbrown/docwatch/internal/tasks"
)

// viewerChrome is the number of lines used by the header, the section tab
// bar and the footer.
const viewerChrome = 4

// Viewer shows one document. Analysed documents are split into their
// analysis sections, one tab each.
type Viewer struct {
	doc      catalog.Document
	sections []tasks.Section
	tabs     *tabs.Controller
	warning  string

	vp     viewport.Model
	width  int
	height int

	// rendered caches glamour output per section at renderWidth.
	rendered    map[string]string
	renderWidth int
}

// NewViewer prepares a viewer for doc with the given full content.
// analysed selects the sectioned layout.
func NewViewer(doc catalog.Document, content string, analysed bool, width, height int) *Viewer {
	v := &Viewer{doc: doc, rendered: make(map[string]string)}

	if analysed {
		v.sections = tasks.Extract(content)
		if len(v.sections) == 0 {
			v.warning = tasks.NoTasksWarning
		}
	}
	if len(v.sections) == 0 {
		v.sections = []tasks.Section{{Type: "document", Name: "原文", Content: content}}
	}

	ids := make([]string, len(v.sections))
	for i, s := range v.sections {
		ids[i] = s.Type
	}
	v.tabs = tabs.New(ids...)
	v.vp = viewport.New(width, height-viewerChrome)
	v.SetSize(width, height)
	return v
}

// SetSize resizes the viewer, re-rendering when the width changes.
func (v *Viewer) SetSize(width, height int) {
	v.width, v.height = width, height
	v.vp.Width = width
	v.vp.Height = max(1, height-viewerChrome)
	if v.warning != "" {
		v.vp.Height = max(1, v.vp.Height-1)
	}
	if width != v.renderWidth {
		v.rendered = make(map[string]string)
		v.renderWidth = width
	}
	v.show()
}

func (v *Viewer) show() {
	id := v.tabs.Active()
	out, ok := v.rendered[id]
	if !ok {
		out = v.render(v.sections[v.tabs.ActiveIndex()].Content)
		v.rendered[id] = out
	}
	v.vp.SetContent(out)
	v.vp.GotoTop()
}

func (v *Viewer) render(md string) string {
	wrap := v.width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		logging.Warn("glamour renderer", "err", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		logging.Warn("glamour render", "link", v.doc.Link(), "err", err)
		return md
	}
	return out
}

// Update handles keys while the viewer is open. closed reports that the
// user left the viewer.
func (v *Viewer) Update(msg tea.Msg) (closed bool, cmd tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc", "q", "backspace":
			return true, nil
		case "tab", "l", "right":
			v.tabs.Next()
			v.show()
			return false, nil
		case "shift+tab", "h", "left":
			v.tabs.Prev()
			v.show()
			return false, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			if v.tabs.ActivateIndex(int(km.String()[0] - '1')) {
				v.show()
			}
			return false, nil
		}
	}
	v.vp, cmd = v.vp.Update(msg)
	return false, cmd
}

// ActiveSection returns the visible section.
func (v *Viewer) ActiveSection() tasks.Section {
	return v.sections[v.tabs.ActiveIndex()]
}

// Sections returns the sections in tab order.
func (v *Viewer) Sections() []tasks.Section { return v.sections }

// View renders the viewer.
func (v *Viewer) View() string {
	var b strings.Builder

	b.WriteString(ViewerTitle.Render(truncateRunes(v.doc.Meta.Title, v.width-2)))
	b.WriteString("\n")

	meta := v.doc.Link()
	if v.doc.Meta.Date != "" {
		meta += " · " + v.doc.Meta.Date
	}
	if v.doc.Meta.Author != "" {
		meta += " · " + v.doc.Meta.Author
	}
	b.WriteString(CardMeta.Padding(0, 1).Render(truncateRunes(meta, v.width-2)))
	b.WriteString("\n")

	var tabBar []string
	for i, s := range v.sections {
		label := fmt.Sprintf("%d %s", i+1, s.Name)
		if v.tabs.IsActive(s.Type) {
			tabBar = append(tabBar, TabActive.Render(label))
		} else {
			tabBar = append(tabBar, TabInactive.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabBar...))
	b.WriteString("\n")
	if v.warning != "" {
		b.WriteString(WarningStyle.Render(v.warning))
		b.WriteString("\n")
	}

	b.WriteString(v.vp.View())
	b.WriteString("\n")

	keys := StatusBarKey.Render("tab") + StatusBarText.Render(":section  ") +
		StatusBarKey.Render("j/k") + StatusBarText.Render(":scroll  ") +
		StatusBarKey.Render("esc") + StatusBarText.Render(":back")
	pct := fmt.Sprintf("%3.0f%%", v.vp.ScrollPercent()*100)
	b.WriteString(StatusBar.Width(v.width).Render(keys + "  " + StatusBarText.Render(pct)))
	return b.String()
}
