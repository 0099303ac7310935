package otel

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, decoded)
	}
	return out
}

func TestEmitWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.GroupEvent(KindReset, "aws", 20, 45)
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["kind"] != "browse.reset" {
		t.Errorf("kind = %v, want browse.reset", got["kind"])
	}
	if got["group"] != "aws" {
		t.Errorf("group = %v, want aws", got["group"])
	}
	if got["count"] != float64(20) || got["total"] != float64(45) {
		t.Errorf("count/total = %v/%v, want 20/45", got["count"], got["total"])
	}
	if got["session_id"] != l.SessionID() {
		t.Errorf("session_id = %v, want %v", got["session_id"], l.SessionID())
	}
}

func TestEmitSetsTime(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	before := time.Now()
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	var ev Event
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Time.Before(before) {
		t.Errorf("time %v is before %v", ev.Time, before)
	}
	if len(ev.SessionID) != 16 {
		t.Errorf("session_id should be 16 hex chars, got %q", ev.SessionID)
	}
}

func TestDurSerializedAsMillis(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindScan, Dur: 1500 * time.Millisecond})
	l.Close()

	lines := decodeLines(t, &buf)
	if lines[0]["dur_ms"] != float64(1500) {
		t.Errorf("dur_ms = %v, want 1500", lines[0]["dur_ms"])
	}
}

func TestOmitEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindStartup})
	l.Close()

	line := buf.String()
	for _, field := range []string{"dur_ms", "count", "total", "group", "query", "err", "msg", "extra"} {
		if strings.Contains(line, `"`+field+`"`) {
			t.Errorf("field %q should be omitted: %s", field, line)
		}
	}
}

func TestLevelHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Info(KindStartup, "main", "hello")
	l.Warn(KindDateFallback, "browse", "bad date")
	l.Error(KindStoreErr, "store", errors.New("disk full"))
	l.Error(KindError, "main", nil)
	l.Close()

	lines := decodeLines(t, &buf)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	wantLevels := []string{"info", "warn", "error", "error"}
	for i, want := range wantLevels {
		if lines[i]["level"] != want {
			t.Errorf("line %d level = %v, want %v", i, lines[i]["level"], want)
		}
	}
	if lines[2]["err"] != "disk full" {
		t.Errorf("err = %v, want disk full", lines[2]["err"])
	}
}

func TestRingBufferMirrorsEvents(t *testing.T) {
	l := NewNullLogger()
	ring := NewRingBuffer(8)
	l.SetRingBuffer(ring)

	l.GroupEvent(KindSort, "gcp", 0, 0)
	l.Close()

	last := ring.Last(1)
	if len(last) != 1 || last[0].Kind != KindSort {
		t.Errorf("ring did not receive event: %v", last)
	}
}

func TestConcurrentEmit(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Emit(Event{Kind: KindLoadMore})
		}()
	}
	wg.Wait()
	l.Close()

	if got := len(decodeLines(t, &buf)); got != 50 {
		t.Errorf("expected 50 lines, got %d", got)
	}
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	l := NewNullLogger()
	l.Close()
	l.Emit(Event{Kind: KindShutdown})
	l.Close()

	if l.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", l.Dropped())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.GroupEvent(KindReset, "x", 1, 1)
	l.Close()
}
