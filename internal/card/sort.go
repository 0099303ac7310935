package card

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the total order imposed on a working list.
type SortKey string

const (
	DateDesc  SortKey = "date-desc"
	DateAsc   SortKey = "date-asc"
	TitleAsc  SortKey = "title-asc"
	TitleDesc SortKey = "title-desc"
)

// DefaultSortKey is applied to every group on first load.
const DefaultSortKey = DateDesc

// SortKeys lists the selectable keys in selector order.
var SortKeys = []SortKey{DateDesc, DateAsc, TitleAsc, TitleDesc}

// ParseSortKey reports whether s names a known key.
func ParseSortKey(s string) (SortKey, bool) {
	for _, k := range SortKeys {
		if string(k) == s {
			return k, true
		}
	}
	return SortKey(s), false
}

// Label returns the selector label for the key.
func (k SortKey) Label() string {
	switch k {
	case DateDesc:
		return "Newest first"
	case DateAsc:
		return "Oldest first"
	case TitleAsc:
		return "Title A-Z"
	case TitleDesc:
		return "Title Z-A"
	default:
		return string(k)
	}
}

// Next returns the key after k in selector order, wrapping around.
// Unknown keys advance to the default.
func (k SortKey) Next() SortKey {
	for i, s := range SortKeys {
		if s == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return DefaultSortKey
}

// Sorter orders working lists. A Sorter holds a collator and is not safe
// for concurrent use; each group owns its own.
type Sorter struct {
	collator *collate.Collator

	// OnFallback, if set, is called for every card whose date could not be
	// parsed and was treated as EpochDate.
	OnFallback func(Card)
}

// NewSorter returns a Sorter comparing titles with the collation rules of tag.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{collator: collate.New(tag)}
}

// Sort orders cards by key in place using a stable sort and returns the same
// slice. An unrecognized key leaves the order untouched.
func Sort(cards []Card, key SortKey) []Card {
	return NewSorter(defaultTag).Sort(cards, key)
}

// Sort orders cards by key in place. See the package-level Sort.
func (s *Sorter) Sort(cards []Card, key SortKey) []Card {
	switch key {
	case DateDesc, DateAsc:
		s.sortByDate(cards, key == DateDesc)
	case TitleAsc:
		sort.SliceStable(cards, func(i, j int) bool {
			return s.collator.CompareString(cards[i].Title, cards[j].Title) < 0
		})
	case TitleDesc:
		sort.SliceStable(cards, func(i, j int) bool {
			return s.collator.CompareString(cards[j].Title, cards[i].Title) < 0
		})
	}
	return cards
}

// sortByDate parses every date once, sorts the decorated entries and writes
// them back so the caller's slice ends up reordered.
func (s *Sorter) sortByDate(cards []Card, newestFirst bool) {
	type entry struct {
		card Card
		at   time.Time
	}
	entries := make([]entry, len(cards))
	for i, c := range cards {
		t, ok := ParseDate(c.Date)
		if !ok && s.OnFallback != nil {
			s.OnFallback(c)
		}
		entries[i] = entry{card: c, at: t}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if newestFirst {
			return entries[i].at.After(entries[j].at)
		}
		return entries[i].at.Before(entries[j].at)
	})

	for i := range entries {
		cards[i] = entries[i].card
	}
}

var defaultTag = language.Und
