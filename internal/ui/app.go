package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"github.com/abelbrown/docwatch/internal/browse"
	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/layout"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/otel"
	"github.com/abelbrown/docwatch/internal/tabs"
)

// Lines reserved for the tab bar, the search bar and the status bar.
const appChrome = 3

// Fallback terminal size until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 100
	defaultHeight = 30
)

// AppConfig wires the App. LoadSources and ReadDocument return the commands
// that do I/O; the App never touches the filesystem or the index itself.
type AppConfig struct {
	View        string
	Params      layout.Params
	LoadLatency time.Duration
	Debounce    time.Duration
	Locale      language.Tag
	SortKey     card.SortKey

	Events *otel.Logger
	Ring   *otel.RingBuffer

	LoadSources  func() tea.Cmd
	ReadDocument func(link string) tea.Cmd
}

// groupView is the per-tab UI state layered over a browse group.
type groupView struct {
	id     string
	label  string
	handle browse.Handle
	group  *browse.Group // nil when the group's source is missing
	err    error

	selected int // node index; len(nodes) addresses the load-more control
	offset   int // first visible line
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold *store.Store or the catalog. It receives
// groups and documents via messages.
type App struct {
	cfg  AppConfig
	keys KeyMap

	groups []*groupView
	tabs   *tabs.Controller
	coord  *browse.Coordinator

	search    textinput.Model
	searching bool

	profile  layout.Profile
	debounce *layout.Debouncer
	sized    bool

	loading map[string]bool // groups with a load in flight
	spinner spinner.Model

	viewer *Viewer
	help   help.Model

	note         string
	err          error
	width        int
	height       int
	ready        bool
	debugVisible bool
}

// NewApp creates a new App.
func NewApp(cfg AppConfig) App {
	if cfg.SortKey == "" {
		cfg.SortKey = card.DefaultSortKey
	}
	d := layout.DefaultParams()
	if cfg.Params.InitialBatch <= 0 {
		cfg.Params.InitialBatch = d.InitialBatch
	}
	if cfg.Params.Increment <= 0 {
		cfg.Params.Increment = d.Increment
	}
	if cfg.Params.MobileMaxWidth <= 0 {
		cfg.Params.MobileMaxWidth = d.MobileMaxWidth
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "search titles"
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = StatusBarKey

	return App{
		cfg:      cfg,
		keys:     DefaultKeyMap,
		tabs:     tabs.New(),
		coord:    browse.NewCoordinator(),
		search:   ti,
		profile:  layout.ProfileFor(defaultWidth, defaultHeight, cfg.Params),
		debounce: layout.NewDebouncer(cfg.Debounce),
		loading:  make(map[string]bool),
		spinner:  sp,
		help:     help.New(),
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

// Init starts loading the groups.
func (a App) Init() tea.Cmd {
	if a.cfg.LoadSources != nil {
		return a.cfg.LoadSources()
	}
	return nil
}

func (a App) groupOptions() browse.Options {
	return browse.Options{
		Render:       CardRenderer(a.profile),
		InitialBatch: a.profile.InitialBatch,
		Increment:    a.profile.Increment,
		Locale:       a.cfg.Locale,
		SortKey:      a.cfg.SortKey,
		Events:       a.cfg.Events,
	}
}

// setSources builds one group per source. A source whose container is
// missing gets a no-op handle so the other groups keep working.
func (a *App) setSources(sources []browse.Source) {
	a.groups = nil
	a.coord = browse.NewCoordinator()
	ids := make([]string, 0, len(sources))
	opts := a.groupOptions()

	for _, src := range sources {
		h, g := browse.Open(src, opts)
		gv := &groupView{id: src.ID, label: src.Label, handle: h, group: g, err: src.Err}
		if gv.label == "" {
			gv.label = src.ID
		}
		a.groups = append(a.groups, gv)
		a.coord.Register(h)
		ids = append(ids, src.ID)
	}
	a.tabs = tabs.New(ids...)

	if term := a.search.Value(); term != "" {
		a.coord.Search(term)
	}
}

func (a App) active() *groupView {
	i := a.tabs.ActiveIndex()
	if i < 0 || i >= len(a.groups) {
		return nil
	}
	return a.groups[i]
}

func (a App) contentHeight() int {
	h := a.height - appChrome
	if a.err != nil {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleWindowSize(msg)

	case layout.ResizeMsg:
		return a.handleResize(msg)

	case SourcesLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			logging.Error("load groups", "err", msg.Err)
			return a, nil
		}
		a.note = msg.Note
		a.setSources(msg.Sources)
		return a, nil

	case LoadMoreDone:
		return a.finishLoad(msg.Group), nil

	case DocumentLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.viewer = NewViewer(msg.Doc, msg.Content, a.cfg.View == catalog.ViewAnalyzed, a.width, a.height)
		a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindOpenDoc, Comp: "ui", Msg: msg.Doc.Link()})
		return a, nil

	case spinner.TickMsg:
		if len(a.loading) == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.viewer != nil {
			closed, cmd := a.viewer.Update(msg)
			if closed {
				a.viewer = nil
			}
			return a, cmd
		}
		if a.searching {
			return a.handleSearchKey(msg)
		}
		return a.handleKeyMsg(msg)
	}

	if a.viewer != nil {
		_, cmd := a.viewer.Update(msg)
		return a, cmd
	}
	return a, nil
}

// handleWindowSize applies the new size to the chrome at once. The first
// size initialises the layout immediately; later ones go through the
// debouncer before any group is rebuilt.
func (a App) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	a.width, a.height = msg.Width, msg.Height
	a.ready = true
	a.search.Width = max(10, msg.Width-20)
	a.help.Width = msg.Width
	if a.viewer != nil {
		a.viewer.SetSize(msg.Width, msg.Height)
	}

	if !a.sized {
		a.sized = true
		a.applyProfile(layout.ProfileFor(msg.Width, msg.Height, a.cfg.Params))
		return a, nil
	}
	return a, a.debounce.Trigger(msg.Width, msg.Height)
}

func (a App) handleResize(msg layout.ResizeMsg) (tea.Model, tea.Cmd) {
	if !a.debounce.Fire(msg) {
		return a, nil
	}
	a.applyProfile(layout.ProfileFor(msg.Width, msg.Height, a.cfg.Params))
	return a, nil
}

// applyProfile switches to p, rebuilding every group when the card layout
// changes. Sort key and search term survive the rebuild; cursors restart.
func (a *App) applyProfile(p layout.Profile) {
	old := a.profile
	a.profile = p
	if !p.Changed(old) {
		return
	}

	opts := a.groupOptions()
	for _, gv := range a.groups {
		if gv.group == nil {
			continue
		}
		gv.group.Rebuild(opts)
		gv.selected, gv.offset = 0, 0
	}
	a.loading = make(map[string]bool)
	logging.Debug("layout rebuilt", "width", p.Width, "device", p.Device)
	a.cfg.Events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindResize, Comp: "ui",
		Msg:   fmt.Sprintf("%dx%d %s", p.Width, p.Height, p.Device),
	})
}

// handleSearchKey feeds keystrokes to the search box while it has focus.
// Every change is routed to all groups at once.
func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		a.searching = false
		a.search.Blur()
		return a, nil
	case "ctrl+c":
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	a.applySearch(a.search.Value())
	return a, cmd
}

func (a *App) applySearch(term string) {
	if !a.coord.Search(term) {
		return
	}
	for _, gv := range a.groups {
		gv.selected, gv.offset = 0, 0
	}
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Debug):
		a.debugVisible = !a.debugVisible
		return a, nil

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil

	case key.Matches(msg, a.keys.Search):
		a.searching = true
		cmd := a.search.Focus()
		return a, cmd

	case key.Matches(msg, a.keys.Clear):
		if a.search.Value() != "" {
			a.search.SetValue("")
			a.applySearch("")
		}
		return a, nil

	case key.Matches(msg, a.keys.NextTab):
		a.switchTab(a.tabs.Next())
		return a, nil

	case key.Matches(msg, a.keys.PrevTab):
		a.switchTab(a.tabs.Prev())
		return a, nil

	case key.Matches(msg, a.keys.JumpTab):
		if a.tabs.ActivateIndex(int(msg.String()[0] - '1')) {
			a.switchTab(a.tabs.Active())
		}
		return a, nil
	}

	gv := a.active()
	if gv == nil || gv.group == nil {
		return a, nil
	}
	l := gv.group.Loader()
	last := len(l.Nodes()) - 1
	if l.State() == browse.StatePartial {
		last++ // the load-more control is selectable
	}

	switch {
	case key.Matches(msg, a.keys.Down):
		if gv.selected < last {
			gv.selected++
		}
		a.follow(gv)

	case key.Matches(msg, a.keys.Up):
		if gv.selected > 0 {
			gv.selected--
		}
		a.follow(gv)

	case key.Matches(msg, a.keys.Home):
		gv.selected = 0
		a.follow(gv)

	case key.Matches(msg, a.keys.End):
		gv.selected = max(0, last)
		a.follow(gv)

	case key.Matches(msg, a.keys.Sort):
		gv.group.SetSort(gv.group.SortKey().Next())
		gv.selected, gv.offset = 0, 0

	case key.Matches(msg, a.keys.LoadMore):
		return a.beginLoad(gv)

	case key.Matches(msg, a.keys.Open):
		if gv.selected == len(l.Nodes()) {
			return a.beginLoad(gv)
		}
		if gv.selected < len(l.Nodes()) && a.cfg.ReadDocument != nil {
			return a, a.cfg.ReadDocument(l.Nodes()[gv.selected].Link)
		}
	}
	return a, nil
}

func (a *App) switchTab(id string) {
	logging.Debug("tab", "id", id)
	a.cfg.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindTab, Comp: "ui", Group: id})
}

// beginLoad claims the group's load slot and schedules the deferred finish.
// A request while one is in flight is dropped.
func (a App) beginLoad(gv *groupView) (tea.Model, tea.Cmd) {
	if !gv.group.Loader().Begin() {
		a.cfg.Events.GroupEvent(otel.KindLoadSkip, gv.id, gv.group.Loader().Cursor(), gv.group.Loader().Total())
		return a, nil
	}
	a.loading[gv.id] = true

	id := gv.id
	done := func(time.Time) tea.Msg { return LoadMoreDone{Group: id} }
	if a.cfg.LoadLatency <= 0 {
		return a, func() tea.Msg { return done(time.Time{}) }
	}
	return a, tea.Batch(tea.Tick(a.cfg.LoadLatency, done), a.spinner.Tick)
}

// finishLoad materializes the next batch and scrolls the first new card
// into view.
func (a App) finishLoad(id string) App {
	delete(a.loading, id)
	for _, gv := range a.groups {
		if gv.id != id || gv.group == nil {
			continue
		}
		l := gv.group.Loader()
		first, added := l.Finish(l.Increment())
		if added == 0 {
			continue
		}
		gv.selected = first
		a.follow(gv)
		a.cfg.Events.GroupEvent(otel.KindLoadMore, id, l.Cursor(), l.Total())
	}
	return a
}

// follow adjusts the group's offset so the selection is visible.
func (a App) follow(gv *groupView) {
	gl := layoutGroup(gv.group.Loader(), gv.selected, false, "")
	start, end := gl.span(gv.selected)
	h := a.contentHeight()
	gv.offset = clampOffset(scrollIntoView(gv.offset, h, start, end), h, len(gl.lines))
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.viewer != nil {
		return a.viewer.View()
	}
	if a.debugVisible {
		return debugOverlay(a.cfg.Ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var b strings.Builder
	b.WriteString(a.renderTabBar())
	b.WriteString("\n")
	b.WriteString(a.renderGroup())
	b.WriteString("\n")
	b.WriteString(a.renderSearchBar())
	b.WriteString("\n")
	if a.err != nil {
		b.WriteString(ErrorStyle.Width(a.width).Render("Error: " + a.err.Error() + " (press any key to dismiss)"))
		b.WriteString("\n")
	}
	if a.help.ShowAll {
		b.WriteString(a.help.View(a.keys))
	} else {
		b.WriteString(a.renderStatusBar())
	}
	return b.String()
}

func (a App) renderTabBar() string {
	if len(a.groups) == 0 {
		return StatusBarText.Render(" no groups")
	}

	label := func(i int, gv *groupView) string {
		s := fmt.Sprintf("%d %s", i+1, gv.label)
		if gv.group != nil {
			s += fmt.Sprintf(" (%d)", gv.group.Loader().Total())
		}
		return s
	}

	if a.profile.Compact() {
		i := a.tabs.ActiveIndex()
		return TabActive.Render(fmt.Sprintf("◀ %s ▶", label(i, a.groups[i]))) +
			StatusBarText.Render(fmt.Sprintf(" %d/%d", i+1, len(a.groups)))
	}

	parts := make([]string, 0, len(a.groups))
	for i, gv := range a.groups {
		switch {
		case a.tabs.IsActive(gv.id):
			parts = append(parts, TabActive.Render(label(i, gv)))
		case gv.group == nil:
			parts = append(parts, TabBroken.Render(label(i, gv)))
		default:
			parts = append(parts, TabInactive.Render(label(i, gv)))
		}
	}
	return fitWidth(lipgloss.JoinHorizontal(lipgloss.Top, parts...), a.width)
}

func (a App) renderGroup() string {
	h := a.contentHeight()
	gv := a.active()
	if gv == nil {
		return lipgloss.NewStyle().Height(h).Render(HelpStyle.Render("No documents found."))
	}
	if gv.group == nil {
		msg := "Group unavailable"
		if gv.err != nil {
			msg += ": " + gv.err.Error()
		}
		return lipgloss.NewStyle().Height(h).Render(ErrorStyle.Render(msg))
	}

	gl := layoutGroup(gv.group.Loader(), gv.selected, a.loading[gv.id], a.spinner.View())
	vp := viewport.New(a.width, h)
	vp.SetContent(strings.Join(gl.lines, "\n"))
	vp.SetYOffset(gv.offset)
	return vp.View()
}

func (a App) renderSearchBar() string {
	prompt := SearchBarPrompt.Render("/")
	count := ""
	if gv := a.active(); gv != nil && gv.group != nil {
		count = SearchBarCount.Render(fmt.Sprintf("  %d/%d", gv.group.Loader().Total(), gv.group.Size()))
	}
	if !a.searching && a.search.Value() == "" {
		return SearchBar.Width(a.width).Render(prompt + StatusBarText.Render(" search all groups") + count)
	}
	return SearchBar.Width(a.width).Render(prompt + " " + a.search.View() + count)
}

// renderStatusBar renders the bottom line: view, sort, progress and hints.
func (a App) renderStatusBar() string {
	var parts []string
	parts = append(parts, StatusBarKey.Render("["+a.cfg.View+"]"))
	if gv := a.active(); gv != nil && gv.group != nil {
		l := gv.group.Loader()
		parts = append(parts, StatusBarText.Render(gv.group.SortKey().Label()))
		parts = append(parts, StatusBarText.Render(fmt.Sprintf("%d/%d shown", l.Cursor(), l.Total())))
		if a.loading[gv.id] {
			parts = append(parts, a.spinner.View())
		}
	}
	if a.note != "" {
		parts = append(parts, StatusBarText.Render(a.note))
	}
	if !a.profile.Compact() {
		parts = append(parts, a.help.ShortHelpView(a.keys.ShortHelp()))
	}
	return StatusBar.Width(a.width).MaxHeight(1).Render(strings.Join(parts, "  "))
}

// Groups returns the group ids in tab order (for testing).
func (a App) Groups() []string { return a.tabs.IDs() }

// Group returns the browse group behind id, nil when missing (for testing).
func (a App) Group(id string) *browse.Group {
	for _, gv := range a.groups {
		if gv.id == id {
			return gv.group
		}
	}
	return nil
}

// ActiveGroup returns the visible group's id (for testing).
func (a App) ActiveGroup() string { return a.tabs.Active() }

// Selected returns the selection and scroll offset of group id (for testing).
func (a App) Selected(id string) (selected, offset int) {
	for _, gv := range a.groups {
		if gv.id == id {
			return gv.selected, gv.offset
		}
	}
	return 0, 0
}

// Profile returns the active viewport profile (for testing).
func (a App) Profile() layout.Profile { return a.profile }

// Viewer returns the open document viewer, nil when closed (for testing).
func (a App) Viewer() *Viewer { return a.viewer }
