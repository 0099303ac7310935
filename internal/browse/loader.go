package browse

import (
	"fmt"

	"github.com/abelbrown/docwatch/internal/card"
)

// State is the Loader's position in its lifecycle.
type State int

const (
	StateEmpty    State = iota // no working list yet
	StatePartial               // cursor < total
	StateComplete              // cursor == total
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePartial:
		return "partial"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Renderer turns a card into its visible node. It must be pure: the same
// card always yields the same node and the card is never modified.
type Renderer func(card.Card) string

// Node is one materialized card.
type Node struct {
	Link string
	View string
}

// StatusKind says which affordance sits below the rendered cards.
type StatusKind int

const (
	StatusNone      StatusKind = iota // before the first reset
	StatusLoadMore                    // control offering the next batch
	StatusComplete                    // static "fully loaded" marker
	StatusNoResults                   // placeholder instead of any cards
)

// Status describes the affordance below the cards.
type Status struct {
	Kind  StatusKind
	Label string
	Next  int // cards the next load-more would add
}

// Loader materializes a prefix of a working list. The number of rendered
// nodes always equals min(cursor, len(working)).
//
// A load-more is split into Begin and Finish so the caller can defer Finish
// behind the simulated latency. While one load is in flight Begin refuses a
// second.
type Loader struct {
	render    Renderer
	initial   int
	increment int

	working []card.Card
	nodes   []Node
	cursor  int
	loading bool
	started bool
}

// NewLoader returns an EMPTY loader. Non-positive batch sizes fall back to 1.
func NewLoader(render Renderer, initial, increment int) *Loader {
	if initial <= 0 {
		initial = 1
	}
	if increment <= 0 {
		increment = 1
	}
	return &Loader{render: render, initial: initial, increment: increment}
}

// Reset drops every rendered node, points the loader at working and
// immediately renders the initial batch. An in-flight load is not cancelled;
// its Finish applies to the new list.
func (l *Loader) Reset(working []card.Card) {
	l.working = working
	l.nodes = nil
	l.cursor = 0
	l.started = true
	l.materialize(l.initial)
}

// Begin claims the single load slot. It returns false when a load is already
// in flight or there is nothing left to load.
func (l *Loader) Begin() bool {
	if l.loading || l.State() != StatePartial {
		return false
	}
	l.loading = true
	return true
}

// Finish completes a load started with Begin by rendering up to n more
// cards. It returns the index of the first new node and how many were added;
// first is -1 when nothing was added. Calling Finish without a matching
// Begin does nothing.
func (l *Loader) Finish(n int) (first, added int) {
	if !l.loading {
		return -1, 0
	}
	l.loading = false
	return l.materialize(n)
}

// LoadMore runs Begin and Finish back to back and returns the number of
// cards added.
func (l *Loader) LoadMore(n int) int {
	if !l.Begin() {
		return 0
	}
	_, added := l.Finish(n)
	return added
}

func (l *Loader) materialize(n int) (first, added int) {
	remaining := len(l.working) - l.cursor
	if n > remaining {
		n = remaining
	}
	if n <= 0 {
		return -1, 0
	}

	first = len(l.nodes)
	for _, c := range l.working[l.cursor : l.cursor+n] {
		l.nodes = append(l.nodes, Node{Link: c.Link, View: l.render(c)})
	}
	l.cursor += n
	return first, n
}

// State reports EMPTY, PARTIAL or COMPLETE.
func (l *Loader) State() State {
	switch {
	case !l.started:
		return StateEmpty
	case l.cursor < len(l.working):
		return StatePartial
	default:
		return StateComplete
	}
}

// Status returns the affordance to show below the cards.
func (l *Loader) Status() Status {
	switch l.State() {
	case StateEmpty:
		return Status{Kind: StatusNone}
	case StatePartial:
		rem := l.Remaining()
		next := l.increment
		if rem < next {
			next = rem
		}
		return Status{
			Kind:  StatusLoadMore,
			Label: fmt.Sprintf("Load %d more (%d remaining)", next, rem),
			Next:  next,
		}
	}

	if len(l.working) == 0 {
		return Status{Kind: StatusNoResults, Label: "No matching documents"}
	}
	return Status{Kind: StatusComplete, Label: fmt.Sprintf("All %d documents loaded", len(l.working))}
}

// Nodes returns the rendered nodes. Callers must not modify the slice.
func (l *Loader) Nodes() []Node { return l.nodes }

// Cursor is the number of working-list cards materialized so far.
func (l *Loader) Cursor() int { return l.cursor }

// Total is the length of the working list.
func (l *Loader) Total() int { return len(l.working) }

// Remaining is Total minus Cursor.
func (l *Loader) Remaining() int { return len(l.working) - l.cursor }

// Loading reports whether a load is in flight.
func (l *Loader) Loading() bool { return l.loading }

// Increment is the load-more batch size.
func (l *Loader) Increment() int { return l.increment }

// InitialBatch is the number of cards rendered on Reset.
func (l *Loader) InitialBatch() int { return l.initial }
