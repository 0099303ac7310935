// Package ui provides the Bubble Tea TUI for docwatch.
package ui

import (
	"github.com/abelbrown/docwatch/internal/browse"
	"github.com/abelbrown/docwatch/internal/catalog"
)

// SourcesLoaded is sent when the groups have been read from the catalog or
// the index.
type SourcesLoaded struct {
	Sources []browse.Source
	Note    string // shown in the status bar, e.g. "indexed 2h ago"
	Err     error
}

// LoadMoreDone is sent when the simulated load latency for a group elapses.
type LoadMoreDone struct {
	Group string
}

// DocumentLoaded is sent when a document has been read for the viewer.
type DocumentLoaded struct {
	Doc     catalog.Document
	Content string
	Err     error
}
