// Package otel records what the browser did as typed events.
//
// Events are serialized as JSONL lines by an asynchronous Logger and can be
// mirrored into a RingBuffer that the debug overlay reads while the program
// runs.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names an event as "<subsystem>.<action>".
type EventKind string

const (
	// Browsing engine
	KindReset    EventKind = "browse.reset"
	KindLoadMore EventKind = "browse.load"
	KindLoadSkip EventKind = "browse.load_skip"
	KindSort     EventKind = "browse.sort"
	KindFilter   EventKind = "browse.filter"
	KindTab      EventKind = "browse.tab"
	KindResize   EventKind = "browse.resize"
	KindNoGroup  EventKind = "browse.no_container"

	// Card data
	KindDateFallback EventKind = "card.date_fallback"

	// Catalog and index
	KindScan      EventKind = "catalog.scan"
	KindScanError EventKind = "catalog.error"
	KindIndex     EventKind = "store.index"
	KindStoreErr  EventKind = "store.error"

	// Document viewer
	KindOpenDoc EventKind = "viewer.open"

	// Statistics
	KindStatsFetch EventKind = "stats.fetch"
	KindStatsError EventKind = "stats.error"

	// Process
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is one observability record. Only Kind is required; Time and
// SessionID are filled in by the Logger.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "ui", "browse", "catalog", "stats", "main"
	SessionID string         `json:"session_id,omitempty"`
	Group     string         `json:"group,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // derived from Dur when marshaling
	Count     int            `json:"count,omitempty"`
	Total     int            `json:"total,omitempty"`
	Query     string         `json:"query,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as dur_ms.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
