package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/otel"
	"github.com/abelbrown/docwatch/internal/stats"
	"github.com/abelbrown/docwatch/internal/store"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeDoc(t, root, "raw/aws/blog/2024-01-02_a.md", "# AWS A\n\nfirst")
	writeDoc(t, root, "raw/aws/blog/2024-01-03_b.md", "# AWS B\n\nsecond")
	writeDoc(t, root, "raw/aws/whatsnew/2024-02-01_c.md", "# AWS C\n\nthird")
	writeDoc(t, root, "raw/gcp/blog/2024-03-01_d.md", "# GCP D\n\nfourth")
	return root
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "docwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIndexThenBrowseFromIndex(t *testing.T) {
	root := fixture(t)
	st := openStore(t)

	n, err := indexView(st, root, catalog.ViewRaw)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	msg := loadFromIndex(st, catalog.ViewRaw, "")
	require.NoError(t, msg.Err)
	require.Len(t, msg.Sources, 2)
	assert.Equal(t, "aws", msg.Sources[0].ID)
	assert.Len(t, msg.Sources[0].Cards, 3)
	assert.Contains(t, msg.Note, "indexed")

	byType := loadFromIndex(st, catalog.ViewRaw, "aws")
	require.NoError(t, byType.Err)
	require.Len(t, byType.Sources, 2)
	assert.Equal(t, "BLOG", byType.Sources[0].Label)
}

func TestBrowseFromIndexNeverIndexed(t *testing.T) {
	st := openStore(t)
	msg := loadFromIndex(st, catalog.ViewAnalyzed, "")
	require.Error(t, msg.Err)
	assert.Contains(t, msg.Err.Error(), "docwatch index")
}

func TestIndexMissingViewRecordsScan(t *testing.T) {
	st := openStore(t)

	_, err := indexView(st, t.TempDir(), catalog.ViewRaw)
	require.ErrorIs(t, err, catalog.ErrNoView)

	sc, ok, err := st.LastScan(catalog.ViewRaw)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, sc.Err)
	assert.Zero(t, sc.Count)
}

func TestLoadFromCatalog(t *testing.T) {
	root := fixture(t)

	msg := loadFromCatalog(root, catalog.ViewRaw, "")
	require.NoError(t, msg.Err)
	assert.Len(t, msg.Sources, 2)
	assert.Equal(t, "4 docs", msg.Note)

	msg = loadFromCatalog(root, catalog.ViewRaw, "oracle")
	assert.ErrorIs(t, msg.Err, catalog.ErrNoVendor)
}

func TestPinnedGroupsKeepMissingAsBroken(t *testing.T) {
	msg := loadFromCatalog(fixture(t), catalog.ViewRaw, "")
	require.NoError(t, msg.Err)

	pinned := catalog.Pin(msg.Sources, []string{"gcp", "azure"})
	require.Len(t, pinned, 2)
	assert.Equal(t, "gcp", pinned[0].ID)
	assert.ErrorIs(t, pinned[1].Err, catalog.ErrNoGroup)
}

func TestDocumentMarkdown(t *testing.T) {
	doc := catalog.Document{Vendor: "aws", Type: "blog", Meta: catalog.Meta{Title: "Launch", Date: "2024-01-02"}}
	content := `# Launch

<!-- AI_TASK_START: AI全文翻译 -->
全文
<!-- AI_TASK_END: AI全文翻译 -->

<!-- AI_TASK_START: AI竞争分析 -->
要点
<!-- AI_TASK_END: AI竞争分析 -->
`

	md := documentMarkdown(doc, content, true)
	assert.Contains(t, md, "# Launch")
	assert.Contains(t, md, "aws · BLOG")
	summary := strings.Index(md, "## AI摘要分析")
	translation := strings.Index(md, "## AI全文翻译")
	require.True(t, summary > 0 && translation > 0, md)
	assert.Less(t, summary, translation, "summary section comes first")

	raw := documentMarkdown(doc, content, false)
	assert.NotContains(t, raw, "AI_TASK_START")
	assert.Contains(t, raw, "全文")

	plain := documentMarkdown(doc, "just text", true)
	assert.Contains(t, plain, "just text")
}

func TestPrintMissing(t *testing.T) {
	var buf bytes.Buffer
	printMissing(&buf, nil)
	assert.Contains(t, buf.String(), "complete analysis")

	buf.Reset()
	printMissing(&buf, map[string]map[string][]stats.Missing{
		"aws": {"blog": {
			{Filename: "a.md", Title: "A"},
			{Filename: "b.md", Title: "B", HasAnalysis: true},
		}},
	})
	out := buf.String()
	assert.Contains(t, out, "aws/blog (2)")
	assert.Contains(t, out, "no analysis")
	assert.Contains(t, out, "incomplete")
}

func TestReadTailLines(t *testing.T) {
	log := strings.Join([]string{
		`{"t":"2025-01-01T10:00:00Z","level":"info","kind":"browse.reset","comp":"browse","group":"aws"}`,
		`not json`,
		`{"t":"2025-01-01T10:00:01Z","level":"warn","kind":"catalog.scan","comp":"catalog"}`,
		`{"t":"2025-01-01T10:00:02Z","level":"error","kind":"browse.load","comp":"browse","group":"gcp"}`,
	}, "\n")

	lines := readTailLines(strings.NewReader(log), 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "catalog.scan", lines[0].ev.Kind)
	assert.Equal(t, "browse.load", lines[1].ev.Kind)

	flagKind = "browse"
	t.Cleanup(func() { flagKind = "" })
	lines = readTailLines(strings.NewReader(log), 10)
	require.Len(t, lines, 2)
	assert.Equal(t, "aws", lines[0].ev.Group)
	assert.Contains(t, lines[1].ev.format(lines[1].raw), "group=gcp")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestFailingCommandStillFlushesEventLog(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	cfgPath := filepath.Join(dir, "config.json")
	writeDoc(t, dir, "config.json", `{
  "data_dir": "`+filepath.ToSlash(filepath.Join(dir, "missing"))+`",
  "db_path": "`+filepath.ToSlash(filepath.Join(dir, "state", "nested", "docwatch.db"))+`",
  "log_dir": "`+filepath.ToSlash(logDir)+`"
}`)
	t.Setenv("DOCWATCH_DATA_DIR", "")
	t.Setenv("DOCWATCH_DB", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "index"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		flagConfig = ""
		cfg = nil
	})

	require.Error(t, run())
	assert.Nil(t, events)

	data, err := os.ReadFile(filepath.Join(logDir, "docwatch.events.jsonl"))
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, string(otel.KindStartup))
	assert.Contains(t, log, string(otel.KindScanError))
	assert.Contains(t, log, string(otel.KindShutdown))
	assert.Less(t, strings.Index(log, string(otel.KindScanError)), strings.Index(log, string(otel.KindShutdown)))
}
