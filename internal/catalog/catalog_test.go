package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	writeDoc(t, root, "raw/aws/whatsnew/notes.txt", "ignored")
	writeDoc(t, root, "raw/gcp/blog/2024-03-01_d.md", "# GCP D\n\nfourth")
	writeDoc(t, root, "analyzed/aws/blog/2024-01-02_a.md", `# AWS A

<!-- AI_TASK_START: AI标题翻译 -->
亚马逊 A
<!-- AI_TASK_END: AI标题翻译 -->

<!-- AI_TASK_START: AI全文翻译 -->
全文
<!-- AI_TASK_END: AI全文翻译 -->

<!-- AI_TASK_START: AI竞争分析 -->
摘要  内容
<!-- AI_TASK_END: AI竞争分析 -->
`)
	writeDoc(t, root, "analyzed/gcp/blog/2024-03-01_d.md", "# GCP D\n\nplain")
	return root
}

func TestScanRaw(t *testing.T) {
	c, err := Scan(fixture(t), ViewRaw)
	require.NoError(t, err)

	require.Len(t, c.Vendors, 2)
	assert.Equal(t, "aws", c.Vendors[0].Name, "most documents first")
	assert.Equal(t, 3, c.Vendors[0].Count())
	assert.Equal(t, 4, c.Count())

	aws := c.Vendors[0]
	require.Len(t, aws.Types, 2)
	assert.Equal(t, "blog", aws.Types[0].Name)

	a := aws.Types[0].Docs[0]
	assert.Equal(t, "aws/blog/2024-01-02_a.md", a.Link())
	assert.Equal(t, "AWS A", a.Meta.Title)
	assert.Equal(t, "2024-01-02", a.Meta.Date)
	assert.True(t, a.HasAnalysis)
	assert.False(t, aws.Types[0].Docs[1].HasAnalysis)

	cd := a.Card()
	assert.Equal(t, "aws", cd.Group)
	assert.Equal(t, "blog", cd.Type)
	assert.Equal(t, "first", cd.Markup)
}

func TestScanAnalyzed(t *testing.T) {
	c, err := Scan(fixture(t), ViewAnalyzed)
	require.NoError(t, err)

	aws, ok := c.Vendor("aws")
	require.True(t, ok)
	d := aws.Types[0].Docs[0]
	assert.Equal(t, "亚马逊 A", d.Meta.Title)
	assert.Equal(t, "摘要 内容", d.Meta.Excerpt)
	assert.Equal(t, []string{"AI全文翻译", "AI竞争分析"}, d.Tasks)
	assert.True(t, d.HasRaw)
	assert.True(t, d.TasksDone)

	gcp, ok := c.Vendor("gcp")
	require.True(t, ok)
	assert.Equal(t, AnalysisTitlePrefix+"GCP D", gcp.Types[0].Docs[0].Meta.Title)
	assert.False(t, gcp.Types[0].Docs[0].TasksDone)
}

func TestScanErrors(t *testing.T) {
	_, err := Scan(t.TempDir(), ViewRaw)
	assert.True(t, errors.Is(err, ErrNoView))

	_, err = Scan(t.TempDir(), "bogus")
	assert.True(t, errors.Is(err, ErrNoView))
}

func TestSourcesByVendor(t *testing.T) {
	c, err := Scan(fixture(t), ViewRaw)
	require.NoError(t, err)

	srcs, err := c.Sources("")
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, "aws", srcs[0].ID)
	assert.Len(t, srcs[0].Cards, 3)
}

func TestSourcesByType(t *testing.T) {
	c, err := Scan(fixture(t), ViewRaw)
	require.NoError(t, err)

	srcs, err := c.Sources("aws")
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, "blog", srcs[0].ID)
	assert.Equal(t, "BLOG", srcs[0].Label)
	assert.Equal(t, "whatsnew", srcs[1].ID)
	assert.Len(t, srcs[1].Cards, 1)

	_, err = c.Sources("azure")
	assert.True(t, errors.Is(err, ErrNoVendor))
}

func TestPin(t *testing.T) {
	c, err := Scan(fixture(t), ViewRaw)
	require.NoError(t, err)
	srcs, err := c.Sources("")
	require.NoError(t, err)

	pinned := Pin(srcs, []string{"gcp", "azure"})
	require.Len(t, pinned, 2)
	assert.Equal(t, "gcp", pinned[0].ID)
	assert.NoError(t, pinned[0].Err)
	assert.Equal(t, "azure", pinned[1].ID)
	assert.True(t, errors.Is(pinned[1].Err, ErrNoGroup))

	assert.Equal(t, srcs, Pin(srcs, nil))
}

func TestRead(t *testing.T) {
	root := fixture(t)
	d, content, err := Read(root, ViewRaw, "gcp/blog/2024-03-01_d.md")
	require.NoError(t, err)
	assert.Equal(t, "GCP D", d.Meta.Title)
	assert.Contains(t, content, "fourth")

	for _, bad := range []string{"../etc/passwd", "a/b", "a/../c.md", "a/b/c.txt", "a//c.md"} {
		_, _, err := Read(root, ViewRaw, bad)
		assert.True(t, errors.Is(err, ErrBadLink), bad)
	}

	_, _, err = Read(root, ViewRaw, "gcp/blog/missing.md")
	assert.Error(t, err)
}
