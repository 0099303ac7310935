package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than importing otel to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time      time.Time `json:"t"`
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Comp      string    `json:"comp"`
	SessionID string    `json:"session_id"`
	Group     string    `json:"group"`
	DurMs     float64   `json:"dur_ms"`
	Count     int       `json:"count"`
	Total     int       `json:"total"`
	Query     string    `json:"query"`
	Err       string    `json:"err"`
	Msg       string    `json:"msg"`
}

var (
	flagTail    int
	flagFollow  bool
	flagKind    string
	flagLevel   string
	flagComp    string
	flagGroup   string
	flagRawJSON bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "JSONL event log viewer",
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.IntVar(&flagTail, "tail", 50, "number of recent lines to show")
	f.BoolVarP(&flagFollow, "follow", "f", false, "follow mode (like tail -f)")
	f.StringVar(&flagKind, "kind", "", "filter by event kind prefix (e.g. 'browse')")
	f.StringVar(&flagLevel, "level", "", "minimum level: debug, info, warn, error")
	f.StringVar(&flagComp, "comp", "", "filter by component name")
	f.StringVar(&flagGroup, "group", "", "filter by group id")
	f.BoolVar(&flagRawJSON, "json", false, "output raw JSON lines")
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func (ev eventRecord) matches() bool {
	if flagKind != "" && !strings.HasPrefix(ev.Kind, flagKind) {
		return false
	}
	if flagLevel != "" && levelRank(ev.Level) < levelRank(flagLevel) {
		return false
	}
	if flagComp != "" && ev.Comp != flagComp {
		return false
	}
	if flagGroup != "" && ev.Group != flagGroup {
		return false
	}
	return true
}

func (ev eventRecord) format(raw []byte) string {
	if flagRawJSON {
		return string(raw)
	}
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-20s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}
	if ev.Group != "" {
		parts = append(parts, "group="+ev.Group)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 || ev.Total > 0 {
		parts = append(parts, fmt.Sprintf("n=%d/%d", ev.Count, ev.Total))
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

func runEvents(cmd *cobra.Command, args []string) error {
	logPath := eventLogPath()
	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run docwatch first): %w", logPath, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	for _, l := range readTailLines(f, flagTail) {
		fmt.Fprintln(out, l.ev.format(l.raw))
	}
	if !flagFollow {
		return nil
	}

	// Poll for new lines until interrupted
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if ev.matches() {
			fmt.Fprintln(out, ev.format(line))
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filters.
func readTailLines(r io.Reader, n int) []parsedLine {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil || !ev.matches() {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		if n > 0 && len(ring) > n {
			ring = ring[1:]
		}
	}
	if n <= 0 {
		return nil
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
