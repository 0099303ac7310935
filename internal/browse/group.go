// Package browse owns the per-group browsing state: the immutable master
// list of cards, the derived working list and the incremental loader that
// materializes it, plus the coordinator that routes one global search term
// to every group.
package browse

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/otel"
)

// ErrNoContainer is returned when a group's source could not be read.
var ErrNoContainer = errors.New("group container missing")

// Source is the raw input for one group.
type Source struct {
	ID    string
	Label string
	Cards []card.Card
	Err   error // set when the group's container could not be read
}

// Options configure how a group renders and loads.
type Options struct {
	Render       Renderer
	InitialBatch int
	Increment    int
	Locale       language.Tag // title collation; zero value is language.Und
	SortKey      card.SortKey // zero value uses card.DefaultSortKey
	Events       *otel.Logger // optional
}

// Handle is what the search coordinator drives. *Group and NoopHandle
// implement it.
type Handle interface {
	ID() string
	Filter(term string)
}

// NoopHandle stands in for a group whose container is missing.
type NoopHandle struct{ GroupID string }

func (h NoopHandle) ID() string      { return h.GroupID }
func (h NoopHandle) Filter(string) {}

// Group is the explicit state record for one document group. It is driven
// from a single goroutine.
type Group struct {
	id     string
	label  string
	master []card.Card

	working []card.Card
	sortKey card.SortKey
	term    string
	loader  *Loader

	sorter *card.Sorter
	events *otel.Logger
}

// NewGroup builds a group from src and performs the initial sort and reset.
// It returns an error wrapping ErrNoContainer when src.Err is set.
func NewGroup(src Source, opts Options) (*Group, error) {
	if src.Err != nil {
		return nil, fmt.Errorf("group %q: %w: %v", src.ID, ErrNoContainer, src.Err)
	}

	label := src.Label
	if label == "" {
		label = src.ID
	}
	master := make([]card.Card, len(src.Cards))
	copy(master, src.Cards)

	g := &Group{
		id:      src.ID,
		label:   label,
		master:  master,
		sortKey: opts.SortKey,
		events:  opts.Events,
	}
	if g.sortKey == "" {
		g.sortKey = card.DefaultSortKey
	}
	g.configure(opts)
	g.apply()
	return g, nil
}

// Open is NewGroup for callers that must keep going when a group is broken:
// on error it logs and returns a NoopHandle and a nil group.
func Open(src Source, opts Options) (Handle, *Group) {
	g, err := NewGroup(src, opts)
	if err != nil {
		logging.Error("group unavailable", "group", src.ID, "err", err)
		opts.Events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindNoGroup, Comp: "browse", Group: src.ID, Err: err.Error()})
		return NoopHandle{GroupID: src.ID}, nil
	}
	return g, g
}

func (g *Group) configure(opts Options) {
	g.sorter = card.NewSorter(opts.Locale)
	g.sorter.OnFallback = g.dateFallback
	g.loader = NewLoader(opts.Render, opts.InitialBatch, opts.Increment)
}

func (g *Group) dateFallback(c card.Card) {
	logging.Debug("unparsable date, using epoch", "group", g.id, "link", c.Link, "date", c.Date)
	g.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDateFallback, Comp: "browse", Group: g.id, Msg: c.Link})
}

// apply derives a fresh working list from the master list using the current
// term and sort key, then resets the loader.
func (g *Group) apply() {
	g.working = g.sorter.Sort(card.Filter(g.master, g.term), g.sortKey)
	g.loader.Reset(g.working)
	g.events.GroupEvent(otel.KindReset, g.id, g.loader.Cursor(), g.loader.Total())
}

// ID returns the group identifier.
func (g *Group) ID() string { return g.id }

// Label returns the display name.
func (g *Group) Label() string { return g.label }

// Filter replaces the search term and rebuilds the working list.
func (g *Group) Filter(term string) {
	g.term = term
	g.apply()
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFilter, Comp: "browse", Group: g.id, Query: term, Count: g.loader.Total(), Total: len(g.master)})
}

// SetSort reorders the working list by key and resets the loader.
func (g *Group) SetSort(key card.SortKey) {
	g.sortKey = key
	g.sorter.Sort(g.working, key)
	g.loader.Reset(g.working)
	g.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSort, Comp: "browse", Group: g.id, Msg: string(key)})
	g.events.GroupEvent(otel.KindReset, g.id, g.loader.Cursor(), g.loader.Total())
}

// Rebuild tears down the loader and replays the current term and sort key
// with new options. Used after a debounced resize.
func (g *Group) Rebuild(opts Options) {
	g.configure(opts)
	g.apply()
}

// Loader returns the group's incremental loader.
func (g *Group) Loader() *Loader { return g.loader }

// SortKey returns the active sort key.
func (g *Group) SortKey() card.SortKey { return g.sortKey }

// Term returns the active search term.
func (g *Group) Term() string { return g.term }

// Working returns the current working list. Callers must not modify it.
func (g *Group) Working() []card.Card { return g.working }

// Size returns the number of cards in the master list.
func (g *Group) Size() int { return len(g.master) }

// Card looks up a master card by link.
func (g *Group) Card(link string) (card.Card, bool) {
	for _, c := range g.master {
		if c.Link == link {
			return c, true
		}
	}
	return card.Card{}, false
}
