// Package catalog discovers the markdown documents under a data directory
// laid out as <root>/<view>/<vendor>/<type>/<file>.md and turns them into
// cards.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/docwatch/internal/browse"
	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/tasks"
)

const (
	ViewRaw      = "raw"
	ViewAnalyzed = "analyzed"
)

// scanWorkers bounds how many vendor directories are read at once.
const scanWorkers = 8

var (
	// ErrNoView is returned for an unknown view or a missing view directory.
	ErrNoView = errors.New("view not found")
	// ErrNoVendor is returned when a requested vendor has no directory.
	ErrNoVendor = errors.New("vendor not found")
	// ErrBadLink is returned for links that are not vendor/type/file.md.
	ErrBadLink = errors.New("invalid document link")
	// ErrNoGroup marks a pinned group that does not exist.
	ErrNoGroup = errors.New("group not found")
)

// Document is one markdown file and its metadata.
type Document struct {
	Vendor      string
	Type        string
	Filename    string
	Path        string
	Meta        Meta
	Size        int64
	HasAnalysis bool     // an analysed counterpart exists (always true in the analysed view)
	HasRaw      bool     // a raw counterpart exists (always true in the raw view)
	Tasks       []string // analysis sections present, analysed view only
	TasksDone   bool     // every present section has a body, analysed view only
}

// Link is the document's unique id: vendor/type/filename.
func (d Document) Link() string {
	return d.Vendor + "/" + d.Type + "/" + d.Filename
}

// Card returns the browse card for the document.
func (d Document) Card() card.Card {
	return card.Card{
		Title:       d.Meta.Title,
		Date:        d.Meta.Date,
		Link:        d.Link(),
		Markup:      d.Meta.Excerpt,
		Group:       d.Vendor,
		Type:        d.Type,
		HasAnalysis: d.HasAnalysis,
	}
}

// DocType is one <vendor>/<type> directory.
type DocType struct {
	Name string
	Docs []Document
	Err  error
}

// Vendor is one <vendor> directory.
type Vendor struct {
	Name  string
	Types []DocType
	Err   error
}

// Count returns the number of documents across all types.
func (v Vendor) Count() int {
	n := 0
	for _, t := range v.Types {
		n += len(t.Docs)
	}
	return n
}

// Cards returns every document of the vendor as cards, type by type.
func (v Vendor) Cards() []card.Card {
	cards := make([]card.Card, 0, v.Count())
	for _, t := range v.Types {
		for _, d := range t.Docs {
			cards = append(cards, d.Card())
		}
	}
	return cards
}

// Catalog is the result of scanning one view.
type Catalog struct {
	Root    string
	View    string
	Vendors []Vendor // by document count, descending
}

// Count returns the number of documents in the catalog.
func (c *Catalog) Count() int {
	n := 0
	for _, v := range c.Vendors {
		n += v.Count()
	}
	return n
}

// Vendor looks up a vendor by name.
func (c *Catalog) Vendor(name string) (Vendor, bool) {
	for _, v := range c.Vendors {
		if v.Name == name {
			return v, true
		}
	}
	return Vendor{}, false
}

// ValidView reports whether view names a scannable view.
func ValidView(view string) bool {
	return view == ViewRaw || view == ViewAnalyzed
}

func counterpart(view string) string {
	if view == ViewRaw {
		return ViewAnalyzed
	}
	return ViewRaw
}

// Scan walks <root>/<view>. Unreadable vendor or type directories are
// recorded on the entry and do not fail the scan.
func Scan(root, view string) (*Catalog, error) {
	if !ValidView(view) {
		return nil, fmt.Errorf("%w: %q", ErrNoView, view)
	}
	dir := filepath.Join(root, view)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoView, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	// Vendors load in parallel; each writes only its own slot.
	c := &Catalog{Root: root, View: view, Vendors: make([]Vendor, len(names))}
	var g errgroup.Group
	g.SetLimit(scanWorkers)
	for i, name := range names {
		g.Go(func() error {
			c.Vendors[i] = scanVendor(root, view, name)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(c.Vendors, func(i, j int) bool {
		return c.Vendors[i].Count() > c.Vendors[j].Count()
	})
	logging.Info("catalog scanned", "view", view, "vendors", len(c.Vendors), "docs", c.Count())
	return c, nil
}

func scanVendor(root, view, name string) Vendor {
	v := Vendor{Name: name}
	entries, err := os.ReadDir(filepath.Join(root, view, name))
	if err != nil {
		v.Err = err
		logging.Warn("vendor unreadable", "vendor", name, "err", err)
		return v
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v.Types = append(v.Types, scanType(root, view, name, e.Name()))
	}
	return v
}

func scanType(root, view, vendor, typ string) DocType {
	t := DocType{Name: typ}
	dir := filepath.Join(root, view, vendor, typ)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Err = err
		logging.Warn("type unreadable", "vendor", vendor, "type", typ, "err", err)
		return t
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		d, err := load(root, view, vendor, typ, e.Name())
		if err != nil {
			logging.Warn("skipping document", "path", filepath.Join(dir, e.Name()), "err", err)
			continue
		}
		t.Docs = append(t.Docs, d)
	}
	return t
}

func load(root, view, vendor, typ, filename string) (Document, error) {
	path := filepath.Join(root, view, vendor, typ, filename)
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, err
	}

	var content []byte
	if view == ViewAnalyzed {
		content, err = os.ReadFile(path)
	} else {
		content, err = readHead(path, MetaLimit)
	}
	if err != nil {
		return Document{}, err
	}

	d := Document{
		Vendor:   vendor,
		Type:     typ,
		Filename: filename,
		Path:     path,
		Size:     info.Size(),
		Meta:     ExtractMeta(filename, info.ModTime(), content),
	}

	other := filepath.Join(root, counterpart(view), vendor, typ, filename)
	_, statErr := os.Stat(other)
	switch view {
	case ViewRaw:
		d.HasRaw = true
		d.HasAnalysis = statErr == nil
	case ViewAnalyzed:
		d.HasAnalysis = true
		d.HasRaw = statErr == nil
		applyAnalysis(&d, string(content))
	}
	return d, nil
}

// applyAnalysis replaces the title and excerpt of an analysed document with
// the translated title and the leading analysis section.
func applyAnalysis(d *Document, content string) {
	d.Tasks = tasks.Detect(content)
	if t := tasks.TranslatedTitle(content); t != "" {
		d.Meta.Title = t
	} else if !strings.HasPrefix(d.Meta.Title, AnalysisTitlePrefix) {
		d.Meta.Title = AnalysisTitlePrefix + d.Meta.Title
	}
	secs := tasks.Extract(content)
	d.TasksDone = len(secs) > 0
	for _, s := range secs {
		if s.Empty() {
			d.TasksDone = false
		}
	}
	if len(secs) > 0 && !secs[0].Empty() {
		d.Meta.Excerpt = truncate(strings.Join(strings.Fields(secs[0].Content), " "), ExcerptRunes)
	}
}

func readHead(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, n))
}

// SplitLink validates link and returns its parts.
func SplitLink(link string) (vendor, typ, filename string, err error) {
	parts := strings.Split(link, "/")
	if len(parts) != 3 || !strings.HasSuffix(parts[2], ".md") {
		return "", "", "", fmt.Errorf("%w: %q", ErrBadLink, link)
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `\`) {
			return "", "", "", fmt.Errorf("%w: %q", ErrBadLink, link)
		}
	}
	return parts[0], parts[1], parts[2], nil
}

// Read loads one document with its full content.
func Read(root, view, link string) (Document, string, error) {
	if !ValidView(view) {
		return Document{}, "", fmt.Errorf("%w: %q", ErrNoView, view)
	}
	vendor, typ, filename, err := SplitLink(link)
	if err != nil {
		return Document{}, "", err
	}
	d, err := load(root, view, vendor, typ, filename)
	if err != nil {
		return Document{}, "", fmt.Errorf("read %s: %w", link, err)
	}
	content, err := os.ReadFile(d.Path)
	if err != nil {
		return Document{}, "", fmt.Errorf("read %s: %w", link, err)
	}
	return d, string(content), nil
}

// Sources turns the catalog into browse groups. With vendor empty there is
// one group per vendor; otherwise one group per document type of that
// vendor.
func (c *Catalog) Sources(vendor string) ([]browse.Source, error) {
	if vendor == "" {
		out := make([]browse.Source, 0, len(c.Vendors))
		for _, v := range c.Vendors {
			out = append(out, browse.Source{ID: v.Name, Label: v.Name, Cards: v.Cards(), Err: v.Err})
		}
		return out, nil
	}

	v, ok := c.Vendor(vendor)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrNoVendor, vendor, c.View)
	}
	if v.Err != nil {
		return nil, fmt.Errorf("vendor %q: %w", vendor, v.Err)
	}
	out := make([]browse.Source, 0, len(v.Types))
	for _, t := range v.Types {
		cards := make([]card.Card, 0, len(t.Docs))
		for _, d := range t.Docs {
			cards = append(cards, d.Card())
		}
		out = append(out, browse.Source{ID: t.Name, Label: strings.ToUpper(t.Name), Cards: cards, Err: t.Err})
	}
	return out, nil
}

// Pin restricts sources to ids, in that order. An id with no source yields
// a Source carrying ErrNoGroup. Empty ids returns sources unchanged.
func Pin(sources []browse.Source, ids []string) []browse.Source {
	if len(ids) == 0 {
		return sources
	}
	byID := make(map[string]browse.Source, len(sources))
	for _, s := range sources {
		byID[s.ID] = s
	}
	out := make([]browse.Source, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			s = browse.Source{ID: id, Err: ErrNoGroup}
		}
		out = append(out, s)
	}
	return out
}
