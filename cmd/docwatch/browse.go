package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/docwatch/internal/browse"
	"github.com/abelbrown/docwatch/internal/card"
	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/layout"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/otel"
	"github.com/abelbrown/docwatch/internal/store"
	"github.com/abelbrown/docwatch/internal/ui"
)

var (
	flagFromIndex bool
	flagVendor    string
	flagGroups    []string
	flagSort      string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse documents as card groups",
	Long: "Open the card browser. Without --vendor there is one group per vendor; " +
		"with --vendor there is one group per document type of that vendor.",
	RunE: runBrowse,
}

func init() {
	addBrowseFlags(browseCmd)
}

func addBrowseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&flagFromIndex, "from-index", false, "read groups from the SQLite index instead of scanning")
	f.StringVar(&flagVendor, "vendor", "", "browse one vendor, grouped by document type")
	f.StringSliceVar(&flagGroups, "group", nil, "show only these groups, in this order")
	f.StringVar(&flagSort, "sort", "", "initial sort: date-desc, date-asc, title-asc, title-desc")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	view := cfg.Browse.View
	vendor := cfg.Browse.Vendor
	if flagVendor != "" {
		vendor = flagVendor
	}
	groups := cfg.Browse.Groups
	if len(flagGroups) > 0 {
		groups = flagGroups
	}

	sortName := cfg.Browse.DefaultSort
	if flagSort != "" {
		sortName = flagSort
	}
	sortKey, ok := card.ParseSortKey(sortName)
	if !ok {
		return fmt.Errorf("unknown sort key %q", sortName)
	}

	var st *store.Store
	if flagFromIndex {
		var err error
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer st.Close()
	}

	appCfg := ui.AppConfig{
		View: view,
		Params: layout.Params{
			MobileMaxWidth: cfg.Browse.MobileMaxWidth,
			InitialBatch:   cfg.Browse.InitialBatch,
			Increment:      cfg.Browse.Increment,
		},
		LoadLatency: cfg.Browse.LoadLatency(),
		Debounce:    cfg.Browse.DebounceWindow(),
		Locale:      locale(),
		SortKey:     sortKey,
		Events:      events,
		Ring:        ring,

		LoadSources: func() tea.Cmd {
			return func() tea.Msg {
				start := time.Now()
				var msg ui.SourcesLoaded
				if st != nil {
					msg = loadFromIndex(st, view, vendor)
				} else {
					msg = loadFromCatalog(cfg.DataDir, view, vendor)
				}
				if msg.Err != nil {
					events.Error(otel.KindScanError, "catalog", msg.Err)
					return msg
				}
				msg.Sources = catalog.Pin(msg.Sources, groups)
				events.Emit(otel.Event{
					Level: otel.LevelInfo, Kind: otel.KindScan, Comp: "catalog",
					Dur: time.Since(start), Count: len(msg.Sources), Msg: view,
				})
				return msg
			}
		},

		ReadDocument: func(link string) tea.Cmd {
			return func() tea.Msg {
				doc, content, err := catalog.Read(cfg.DataDir, view, link)
				if err != nil {
					logging.Error("read document", "link", link, "err", err)
				}
				return ui.DocumentLoaded{Doc: doc, Content: content, Err: err}
			}
		},
	}

	program := tea.NewProgram(ui.NewApp(appCfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logging.Error("Application error", "error", err)
		return err
	}
	return nil
}

func loadFromCatalog(root, view, vendor string) ui.SourcesLoaded {
	cat, err := catalog.Scan(root, view)
	if err != nil {
		return ui.SourcesLoaded{Err: err}
	}
	sources, err := cat.Sources(vendor)
	if err != nil {
		return ui.SourcesLoaded{Err: err}
	}
	return ui.SourcesLoaded{Sources: sources, Note: fmt.Sprintf("%d docs", cat.Count())}
}

func loadFromIndex(st *store.Store, view, vendor string) ui.SourcesLoaded {
	sc, ok, err := st.LastScan(view)
	if err != nil {
		return ui.SourcesLoaded{Err: fmt.Errorf("read index: %w", err)}
	}
	if !ok {
		return ui.SourcesLoaded{Err: fmt.Errorf("view %q has not been indexed; run docwatch index", view)}
	}
	sources, err := st.Sources(view, vendor)
	if err != nil {
		return ui.SourcesLoaded{Err: err}
	}
	note := fmt.Sprintf("indexed %s ago", time.Since(sc.At).Round(time.Minute))
	return ui.SourcesLoaded{Sources: sources, Note: note}
}

// sourcesFor is browse's group loading without the UI, used by show --list.
func sourcesFor(view, vendor string) ([]browse.Source, error) {
	msg := loadFromCatalog(cfg.DataDir, view, vendor)
	return msg.Sources, msg.Err
}
