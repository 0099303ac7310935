package card

import "strings"

// Filter returns the cards of master whose lower-cased title contains the
// lower-cased term. An empty term yields a shallow copy of master, never
// master itself.
func Filter(master []Card, term string) []Card {
	term = strings.ToLower(term)
	if term == "" {
		out := make([]Card, len(master))
		copy(out, master)
		return out
	}

	out := make([]Card, 0, len(master))
	for _, c := range master {
		if strings.Contains(strings.ToLower(c.Title), term) {
			out = append(out, c)
		}
	}
	return out
}
