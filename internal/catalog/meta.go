package catalog

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/logging"
)

// MetaLimit is how much of a file is inspected for metadata.
const MetaLimit = 16 << 10

// ExcerptRunes caps the card excerpt.
const ExcerptRunes = 240

// AnalysisTitlePrefix marks analysis documents without a translated title.
const AnalysisTitlePrefix = "竞争分析摘要："

// Meta is what can be recovered from a document's leading bytes.
type Meta struct {
	Title      string
	Date       string // YYYY-MM-DD, or "" when nothing matched
	DateSource string // front-matter, content, filename, mtime
	Author     string
	SourceType string
	Excerpt    string
}

type frontMatter struct {
	Title  string `yaml:"title"`
	Date   string `yaml:"date"`
	Author string `yaml:"author"`
	Type   string `yaml:"type"`
}

// Publication-date patterns in priority order. The first capture group holds
// the date.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)发表于[：:]\s*(\d{4}年\d{1,2}月\d{1,2}日)`),
	regexp.MustCompile(`(?m)发布(?:日期|时间)[：:]\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(?m)\*\*发布时间[：:]\*\*\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(?m)\*\*发布时间[：:]\*\*\s*(\d{4}年\d{1,2}月\d{1,2}日)`),
	regexp.MustCompile(`(?m)\*\*发布时间\*\*[：:]\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(?m)\*\*发布日期[：:]\*\*\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(?m)\*\*发布时间[：:]\*\*\s*(\d{4}-\d{1,2})`),
	regexp.MustCompile(`(?m)发布时间为\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(?m)发布日期为\s*(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(\d{4}年\d{1,2}月\d{1,2}日)`),
	regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})\s+\d{1,2}[:：]\d{1,2}`),
}

var (
	filenameDate  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_`)
	filenameMonth = regexp.MustCompile(`^(\d{4}-\d{2})\.md$`)
	yearMonth     = regexp.MustCompile(`^\d{4}-\d{1,2}$`)
	authorLine    = regexp.MustCompile(`(?m)作者[：:]\s*(.+?)[\r\n]`)
	sourceType    = regexp.MustCompile(`(?m)\*\*类型[：:]\*\*\s*([A-Za-z-]+)`)
)

var md = goldmark.New()

// ExtractMeta derives a document's metadata from its filename, modification
// time and leading content. Front matter wins over everything else.
func ExtractMeta(filename string, modTime time.Time, content []byte) Meta {
	if len(content) > MetaLimit {
		content = content[:MetaLimit]
	}
	fm, body := splitFrontMatter(content)

	m := Meta{Title: titleFromFilename(filename)}
	doc := md.Parser().Parse(text.NewReader(body))
	if h := firstHeading(doc, body); h != "" {
		m.Title = h
	}
	m.Excerpt = excerpt(doc, body)

	m.Date, m.DateSource = extractDate(filename, body)
	if m.Date == "" && !modTime.IsZero() {
		m.Date, m.DateSource = modTime.Format("2006-01-02"), "mtime"
	}

	if sm := authorLine.FindSubmatch(body); sm != nil {
		m.Author = strings.TrimSpace(string(sm[1]))
	}
	if sm := sourceType.FindSubmatch(body); sm != nil {
		m.SourceType = strings.ToUpper(strings.TrimSpace(string(sm[1])))
	}

	if fm.Title != "" {
		m.Title = fm.Title
	}
	if d, ok := normalizeDate(fm.Date); ok {
		m.Date, m.DateSource = d, "front-matter"
	}
	if fm.Author != "" {
		m.Author = fm.Author
	}
	if fm.Type != "" {
		m.SourceType = strings.ToUpper(fm.Type)
	}
	return m
}

func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), ".md")
	return strings.ReplaceAll(base, "_", " ")
}

func splitFrontMatter(content []byte) (frontMatter, []byte) {
	var fm frontMatter
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return fm, content
	}
	rest := content[bytes.IndexByte(content, '\n')+1:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return fm, content
	}
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		logging.Debug("bad front matter", "err", err)
		return frontMatter{}, content
	}
	body := rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return fm, body
}

func extractDate(filename string, content []byte) (date, source string) {
	for _, re := range datePatterns {
		sm := re.FindSubmatch(content)
		if sm == nil {
			continue
		}
		if d, ok := normalizeDate(string(sm[1])); ok {
			return d, "content"
		}
	}

	base := filepath.Base(filename)
	if sm := filenameDate.FindStringSubmatch(base); sm != nil {
		if d, ok := normalizeDate(sm[1]); ok {
			return d, "filename"
		}
	}
	if sm := filenameMonth.FindStringSubmatch(base); sm != nil {
		if d, ok := normalizeDate(sm[1]); ok {
			return d, "filename"
		}
	}
	return "", ""
}

// normalizeDate rewrites the accepted spellings (2025年4月10日, 2025/4/10,
// 2025-05) as YYYY-MM-DD.
func normalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if strings.Contains(s, "年") && strings.Contains(s, "月") && strings.Contains(s, "日") {
		s = strings.NewReplacer("年", "-", "月", "-", "日", "").Replace(s)
	}
	s = strings.ReplaceAll(s, "/", "-")
	if yearMonth.MatchString(s) {
		s += "-01"
	}
	if len(s) > 10 {
		s = s[:10]
	}
	t, ok := card.ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func firstHeading(doc ast.Node, source []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			return strings.TrimSpace(inlineText(h, source))
		}
	}
	return ""
}

func excerpt(doc ast.Node, source []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() != ast.KindParagraph {
			continue
		}
		if s := strings.TrimSpace(inlineText(n, source)); s != "" {
			return truncate(s, ExcerptRunes)
		}
	}
	return ""
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeSpan:
			for cc := t.FirstChild(); cc != nil; cc = cc.NextSibling() {
				if tt, ok := cc.(*ast.Text); ok {
					b.Write(tt.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
