package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/docwatch/internal/browse"
	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/layout"
	"github.com/abelbrown/docwatch/internal/otel"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

// newTestApp returns an App that has been sized and given two groups:
// "acme" with 45 cards and "globex" with 5.
func newTestApp(t *testing.T, cfg AppConfig) App {
	t.Helper()
	a := NewApp(cfg)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a, _ = update(t, a, SourcesLoaded{Sources: []browse.Source{
		{ID: "acme", Cards: makeCards(45)},
		{ID: "globex", Cards: makeCards(5)},
	}})
	return a
}

func TestAppSourcesLoaded(t *testing.T) {
	a := newTestApp(t, AppConfig{View: catalog.ViewRaw})

	if got := a.Groups(); len(got) != 2 || got[0] != "acme" || got[1] != "globex" {
		t.Fatalf("Groups() = %v", got)
	}
	if a.ActiveGroup() != "acme" {
		t.Errorf("first group should be active, got %q", a.ActiveGroup())
	}
	if n := len(a.Group("acme").Loader().Nodes()); n != 20 {
		t.Errorf("acme rendered %d cards, want the initial batch of 20", n)
	}
	if n := len(a.Group("globex").Loader().Nodes()); n != 5 {
		t.Errorf("globex rendered %d cards, want 5", n)
	}
}

func TestAppSourcesError(t *testing.T) {
	a := NewApp(AppConfig{})
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a, _ = update(t, a, SourcesLoaded{Err: errors.New("no data dir")})

	if a.err == nil {
		t.Fatal("load error should surface in the error bar")
	}
	if len(a.Groups()) != 0 {
		t.Errorf("no groups expected, got %v", a.Groups())
	}
}

func TestAppLoadMoreImmediate(t *testing.T) {
	a := newTestApp(t, AppConfig{})

	a, cmd := update(t, a, runes("m"))
	if cmd == nil {
		t.Fatal("load more should schedule a completion")
	}
	a, _ = update(t, a, cmd())

	l := a.Group("acme").Loader()
	if len(l.Nodes()) != 40 {
		t.Fatalf("after one load: %d nodes, want 40", len(l.Nodes()))
	}
	sel, off := a.Selected("acme")
	if sel != 20 {
		t.Errorf("selection should move to the first new card, got %d", sel)
	}
	_, end := layoutGroup(l, sel, false, "").span(sel)
	if want := end - a.contentHeight(); want <= 0 || off != want {
		t.Errorf("offset = %d, want %d so the new card's last line sits at the bottom", off, want)
	}

	a, cmd = update(t, a, runes("m"))
	a, _ = update(t, a, cmd())
	if len(l.Nodes()) != 45 || l.State() != browse.StateComplete {
		t.Errorf("after two loads: %d nodes, state %s", len(l.Nodes()), l.State())
	}

	_, cmd = update(t, a, runes("m"))
	if cmd != nil {
		t.Error("load more on a complete group should do nothing")
	}
}

func TestAppLoadMoreInFlightIgnored(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	events := otel.NewNullLogger()
	events.SetRingBuffer(ring)
	defer events.Close()

	a := newTestApp(t, AppConfig{LoadLatency: time.Hour, Events: events})

	a, cmd := update(t, a, runes("m"))
	if cmd == nil {
		t.Fatal("first request should schedule a completion")
	}
	a, cmd = update(t, a, runes("m"))
	if cmd != nil {
		t.Error("second request while loading should be dropped")
	}

	l := a.Group("acme").Loader()
	if !l.Loading() || len(l.Nodes()) != 20 {
		t.Fatalf("before completion: loading=%v nodes=%d", l.Loading(), len(l.Nodes()))
	}

	a, _ = update(t, a, LoadMoreDone{Group: "acme"})
	if len(l.Nodes()) != 40 {
		t.Errorf("after completion: %d nodes, want 40 (one batch only)", len(l.Nodes()))
	}
}

func TestAppLoadMoreDoneAfterRebuildIsSilent(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	events := otel.NewNullLogger()
	events.SetRingBuffer(ring)

	a := newTestApp(t, AppConfig{LoadLatency: time.Hour, Debounce: time.Millisecond, Events: events})

	a, cmd := update(t, a, runes("m"))
	if cmd == nil {
		t.Fatal("load more should schedule a completion")
	}

	a, resize := update(t, a, tea.WindowSizeMsg{Width: 60, Height: 30})
	if resize == nil {
		t.Fatal("resize should be debounced")
	}
	a, _ = update(t, a, resize())
	if a.Profile().Device != layout.Mobile {
		t.Fatalf("resize did not rebuild, profile %+v", a.Profile())
	}

	l := a.Group("acme").Loader()
	a, _ = update(t, a, LoadMoreDone{Group: "acme"})
	if len(l.Nodes()) != 20 {
		t.Errorf("stale completion grew the rebuilt group to %d nodes", len(l.Nodes()))
	}
	if sel, off := a.Selected("acme"); sel != 0 || off != 0 {
		t.Errorf("stale completion moved the selection to %d (offset %d)", sel, off)
	}

	events.Close()
	if n := ring.Stats()[otel.KindLoadMore]; n != 0 {
		t.Errorf("%d %s events for a completion that added nothing", n, otel.KindLoadMore)
	}
}

func TestAppGlobalSearch(t *testing.T) {
	a := newTestApp(t, AppConfig{})

	a, _ = update(t, a, runes("/"))
	if !a.searching {
		t.Fatal("/ should focus the search box")
	}
	for _, r := range "doc 0" {
		a, _ = update(t, a, runes(string(r)))
	}

	// "Doc 00".."Doc 09" match in both groups.
	if got := a.Group("acme").Loader().Total(); got != 10 {
		t.Errorf("acme matches = %d, want 10", got)
	}
	if got := a.Group("globex").Loader().Total(); got != 5 {
		t.Errorf("globex matches = %d, want 5", got)
	}
	if a.Group("acme").Term() != "doc 0" || a.Group("globex").Term() != "doc 0" {
		t.Error("every group should receive the same term")
	}

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if a.searching {
		t.Error("enter should leave the search box")
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if got := a.Group("acme").Loader().Total(); got != 45 {
		t.Errorf("esc should clear the search, acme total = %d", got)
	}
}

func TestAppSortCycleResetsCursor(t *testing.T) {
	a := newTestApp(t, AppConfig{})

	a, cmd := update(t, a, runes("m"))
	a, _ = update(t, a, cmd())
	a, _ = update(t, a, runes("s"))

	g := a.Group("acme")
	if g.SortKey() != card.DefaultSortKey.Next() {
		t.Errorf("sort key = %s, want %s", g.SortKey(), card.DefaultSortKey.Next())
	}
	if n := len(g.Loader().Nodes()); n != 20 {
		t.Errorf("sort should reset to the initial batch, got %d nodes", n)
	}
	if sel, off := a.Selected("acme"); sel != 0 || off != 0 {
		t.Errorf("selection after sort = (%d, %d), want (0, 0)", sel, off)
	}
}

func TestAppTabSwitchKeepsState(t *testing.T) {
	a := newTestApp(t, AppConfig{})

	a, cmd := update(t, a, runes("m"))
	a, _ = update(t, a, cmd())

	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.ActiveGroup() != "globex" {
		t.Fatalf("tab should activate globex, got %q", a.ActiveGroup())
	}
	a, _ = update(t, a, runes("1"))
	if a.ActiveGroup() != "acme" {
		t.Fatalf("1 should jump back to acme, got %q", a.ActiveGroup())
	}
	if n := len(a.Group("acme").Loader().Nodes()); n != 40 {
		t.Errorf("tab switching must not reset groups, acme has %d nodes", n)
	}
}

func TestAppMissingGroup(t *testing.T) {
	a := NewApp(AppConfig{})
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a, _ = update(t, a, SourcesLoaded{Sources: []browse.Source{
		{ID: "broken", Err: errors.New("permission denied")},
		{ID: "acme", Cards: makeCards(45)},
	}})

	if len(a.Groups()) != 2 {
		t.Fatalf("broken group should keep its tab, got %v", a.Groups())
	}
	if a.Group("broken") != nil {
		t.Error("broken group should have no browse group")
	}

	// Search and load-more on the broken tab must not panic.
	a, _ = update(t, a, runes("m"))
	a, _ = update(t, a, runes("/"))
	a, _ = update(t, a, runes("9"))
	// Doc 09, 19, 29 and 39.
	if got := a.Group("acme").Loader().Total(); got != 4 {
		t.Errorf("acme should still filter, total = %d", got)
	}
	_ = a.View()
}

func TestAppResizeDebounced(t *testing.T) {
	a := newTestApp(t, AppConfig{Debounce: time.Millisecond})
	if a.Profile().Device != layout.Desktop {
		t.Fatalf("120 columns should be desktop, got %s", a.Profile().Device)
	}

	a, _ = update(t, a, runes("/"))
	a, _ = update(t, a, runes("1"))
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	a, _ = update(t, a, runes("s"))
	key := a.Group("acme").SortKey()

	a, first := update(t, a, tea.WindowSizeMsg{Width: 70, Height: 40})
	a, second := update(t, a, tea.WindowSizeMsg{Width: 60, Height: 30})
	if first == nil || second == nil {
		t.Fatal("later resizes should be debounced")
	}
	if a.Profile().Width != 120 {
		t.Error("profile should not change before the debounce fires")
	}

	stale := first().(layout.ResizeMsg)
	a, _ = update(t, a, stale)
	if a.Profile().Width != 120 {
		t.Error("a superseded resize must not rebuild")
	}

	a, _ = update(t, a, second().(layout.ResizeMsg))
	p := a.Profile()
	if p.Width != 60 || p.Device != layout.Mobile {
		t.Fatalf("profile = %+v, want 60 columns mobile", p)
	}

	g := a.Group("acme")
	if g.SortKey() != key {
		t.Errorf("sort key after resize = %s, want %s", g.SortKey(), key)
	}
	if g.Term() != "1" {
		t.Errorf("search term after resize = %q, want %q", g.Term(), "1")
	}
}

func TestAppOpenDocument(t *testing.T) {
	var opened string
	a := newTestApp(t, AppConfig{
		View: catalog.ViewRaw,
		ReadDocument: func(link string) tea.Cmd {
			opened = link
			return func() tea.Msg {
				return DocumentLoaded{Doc: catalog.Document{Vendor: "acme", Type: "news", Filename: "doc.md"}, Content: "# Title\n\nbody"}
			}
		},
	})

	a, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on a card should read the document")
	}
	first := a.Group("acme").Loader().Nodes()[0].Link
	if opened != first {
		t.Errorf("opened %q, want the selected card %q", opened, first)
	}

	a, _ = update(t, a, cmd())
	if a.Viewer() == nil {
		t.Fatal("viewer should be open")
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.Viewer() != nil {
		t.Error("esc should close the viewer")
	}
}

func TestAppViewRenders(t *testing.T) {
	a := NewApp(AppConfig{})
	if a.View() != "Loading..." {
		t.Errorf("unsized app should show the loading message, got %q", a.View())
	}

	a = newTestApp(t, AppConfig{View: catalog.ViewRaw})
	if a.View() == "" {
		t.Error("sized app should render")
	}
}
