package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/tasks"
)

const analysedDoc = `# Launch

<!-- AI_TASK_START: AI全文翻译 -->
全文翻译内容
<!-- AI_TASK_END: AI全文翻译 -->

<!-- AI_TASK_START: AI竞争分析 -->
摘要内容
<!-- AI_TASK_END: AI竞争分析 -->

<!-- AI_TASK_START: AI市场影响 -->
<!-- AI_TASK_END: AI市场影响 -->
`

func testDoc() catalog.Document {
	return catalog.Document{
		Vendor: "aws", Type: "blog", Filename: "2024-01-02_a.md",
		Meta: catalog.Meta{Title: "Launch", Date: "2024-01-02"},
	}
}

func TestViewerSectionsByPriority(t *testing.T) {
	v := NewViewer(testDoc(), analysedDoc, true, 100, 30)

	secs := v.Sections()
	if len(secs) != 3 {
		t.Fatalf("sections = %d, want 3", len(secs))
	}
	want := []string{"AI摘要分析", "AI全文翻译", "AI市场影响"}
	for i, name := range want {
		if secs[i].Name != name {
			t.Errorf("section %d = %q, want %q", i, secs[i].Name, name)
		}
	}
	if !secs[2].Empty() {
		t.Errorf("empty section should hold the placeholder, got %q", secs[2].Content)
	}
}

func TestViewerSwitchSections(t *testing.T) {
	v := NewViewer(testDoc(), analysedDoc, true, 100, 30)

	if v.ActiveSection().Name != "AI摘要分析" {
		t.Fatalf("first section = %q", v.ActiveSection().Name)
	}
	if closed, _ := v.Update(tea.KeyMsg{Type: tea.KeyTab}); closed {
		t.Fatal("tab should not close the viewer")
	}
	if v.ActiveSection().Name != "AI全文翻译" {
		t.Errorf("after tab = %q", v.ActiveSection().Name)
	}
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if v.ActiveSection().Name != "AI市场影响" {
		t.Errorf("after 3 = %q", v.ActiveSection().Name)
	}
	if closed, _ := v.Update(tea.KeyMsg{Type: tea.KeyEsc}); !closed {
		t.Error("esc should close the viewer")
	}
}

func TestViewerNoMarkersShowsWarning(t *testing.T) {
	v := NewViewer(testDoc(), "# Launch\n\nplain body", true, 100, 30)

	if len(v.Sections()) != 1 {
		t.Fatalf("sections = %d, want the whole document", len(v.Sections()))
	}
	if !strings.Contains(v.View(), tasks.NoTasksWarning) {
		t.Error("view should carry the missing-analysis warning")
	}
}

func TestViewerRawDocument(t *testing.T) {
	v := NewViewer(testDoc(), analysedDoc, false, 100, 30)
	if len(v.Sections()) != 1 || v.ActiveSection().Name != "原文" {
		t.Errorf("raw document should be a single section, got %+v", v.Sections())
	}
	if !strings.Contains(v.View(), "aws/blog/2024-01-02_a.md") {
		t.Error("view should show the document link")
	}
}
