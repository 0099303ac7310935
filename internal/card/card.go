// Package card holds the presentational unit for a single document and the
// pure engines that derive a working list from a group's master list.
//
// Nothing in this package mutates a master list. Filter always returns a new
// slice; Sort reorders the slice it is given, which callers must only ever
// pass a working copy.
package card

import (
	"strings"
	"time"
)

// EpochDate is substituted for any missing or unparsable publication date.
const EpochDate = "1970-01-01"

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order after underscores are normalized to hyphens.
var dateLayouts = []string{"2006-01-02", "2006-1-2"}

// Card is the immutable descriptor for one document under a group.
type Card struct {
	Title       string // may be empty
	Date        string // YYYY-MM-DD or YYYY_MM_DD, may be empty
	Link        string // unique link target: vendor/type/filename
	Markup      string // body text rendered under the title
	Group       string
	Type        string
	HasAnalysis bool
}

// NormalizeDate replaces underscores with hyphens, e.g. 2025_04_10 -> 2025-04-10.
func NormalizeDate(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
}

// ParseDate parses a card date. The second return value is false when the
// epoch fallback was used.
func ParseDate(s string) (time.Time, bool) {
	s = NormalizeDate(s)
	if s == "" {
		return epoch, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return epoch, false
}

// Time returns the card's parsed publication date (epoch on fallback).
func (c Card) Time() time.Time {
	t, _ := ParseDate(c.Date)
	return t
}

// DisplayDate returns the normalized date, or EpochDate when unparsable.
func (c Card) DisplayDate() string {
	t, ok := ParseDate(c.Date)
	if !ok {
		return EpochDate
	}
	return t.Format("2006-01-02")
}
