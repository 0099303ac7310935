// Package stats compares the raw and analysed views: how many documents each
// vendor/type has, how many were analysed, and which are still missing.
package stats

import (
	"sort"

	"github.com/abelbrown/docwatch/internal/catalog"
)

// Summary is one vendor/type row.
type Summary struct {
	Vendor        string `json:"vendor"`
	SourceType    string `json:"source_type"`
	RawCount      int    `json:"raw_count"`
	AnalysisCount int    `json:"analysis_count"`
	AnalysisMatch bool   `json:"analysis_match"`
	HasFileCount  int    `json:"has_file_count"`   // raw files with an analysed counterpart
	TasksDone     int    `json:"tasks_done_count"` // of those, with every section filled in
}

// File is one raw document in the detailed report.
type File struct {
	Filename       string `json:"filename"`
	Title          string `json:"title"`
	Date           string `json:"date"`
	HasAnalysis    bool   `json:"has_analysis"`
	TasksCompleted bool   `json:"tasks_completed"`
}

// Totals aggregates the summary rows.
type Totals struct {
	Raw      int     `json:"raw"`
	Analyzed int     `json:"analyzed"`
	Coverage float64 `json:"coverage"` // analysed raw files / raw files, 0..1
}

// Report is the GET /api/stats payload.
type Report struct {
	Summary []Summary                    `json:"summary"`
	Totals  Totals                       `json:"totals"`
	Details map[string]map[string][]File `json:"details,omitempty"`
}

// Missing is a raw file whose analysis is absent or incomplete.
type Missing struct {
	Filename       string `json:"filename"`
	Title          string `json:"title"`
	HasAnalysis    bool   `json:"has_analysis"`
	TasksCompleted bool   `json:"tasks_completed"`
	Path           string `json:"path"`
}

type key struct{ vendor, typ string }

// Compute builds a report from the two views. analyzed may be nil when that
// view does not exist yet.
func Compute(raw, analyzed *catalog.Catalog, detailed bool) Report {
	done := make(map[string]bool)
	analysisCount := make(map[key]int)
	if analyzed != nil {
		for _, v := range analyzed.Vendors {
			for _, t := range v.Types {
				analysisCount[key{v.Name, t.Name}] += len(t.Docs)
				for _, d := range t.Docs {
					done[d.Link()] = d.TasksDone
				}
			}
		}
	}

	rep := Report{}
	if detailed {
		rep.Details = make(map[string]map[string][]File)
	}
	seen := make(map[key]bool)
	if raw != nil {
		for _, v := range raw.Vendors {
			for _, t := range v.Types {
				k := key{v.Name, t.Name}
				seen[k] = true
				s := Summary{Vendor: v.Name, SourceType: t.Name, RawCount: len(t.Docs), AnalysisCount: analysisCount[k]}
				var files []File
				for _, d := range t.Docs {
					completed := d.HasAnalysis && done[d.Link()]
					if d.HasAnalysis {
						s.HasFileCount++
					}
					if completed {
						s.TasksDone++
					}
					if detailed {
						files = append(files, File{
							Filename:       d.Filename,
							Title:          d.Meta.Title,
							Date:           d.Meta.Date,
							HasAnalysis:    d.HasAnalysis,
							TasksCompleted: completed,
						})
					}
				}
				s.AnalysisMatch = s.RawCount == s.AnalysisCount
				rep.Summary = append(rep.Summary, s)
				rep.Totals.Raw += s.RawCount
				rep.Totals.Analyzed += s.HasFileCount
				if detailed {
					if rep.Details[v.Name] == nil {
						rep.Details[v.Name] = make(map[string][]File)
					}
					rep.Details[v.Name][t.Name] = files
				}
			}
		}
	}

	// Analysed types without any raw counterpart still get a row.
	for k, n := range analysisCount {
		if !seen[k] {
			rep.Summary = append(rep.Summary, Summary{Vendor: k.vendor, SourceType: k.typ, AnalysisCount: n})
		}
	}

	sort.SliceStable(rep.Summary, func(i, j int) bool {
		a, b := rep.Summary[i], rep.Summary[j]
		if a.Vendor != b.Vendor {
			return a.Vendor < b.Vendor
		}
		return a.SourceType < b.SourceType
	})
	if rep.Totals.Raw > 0 {
		rep.Totals.Coverage = float64(rep.Totals.Analyzed) / float64(rep.Totals.Raw)
	}
	return rep
}

// MissingAnalysis lists, by vendor and type, the raw files whose analysis is
// absent or incomplete. It needs a detailed report.
func (r Report) MissingAnalysis() map[string]map[string][]Missing {
	out := make(map[string]map[string][]Missing)
	for vendor, types := range r.Details {
		for typ, files := range types {
			for _, f := range files {
				if f.HasAnalysis && f.TasksCompleted {
					continue
				}
				if out[vendor] == nil {
					out[vendor] = make(map[string][]Missing)
				}
				title := f.Title
				if title == "" {
					title = f.Filename
				}
				out[vendor][typ] = append(out[vendor][typ], Missing{
					Filename:       f.Filename,
					Title:          title,
					HasAnalysis:    f.HasAnalysis,
					TasksCompleted: f.TasksCompleted,
					Path:           vendor + "/" + typ + "/" + f.Filename,
				})
			}
		}
	}
	return out
}
