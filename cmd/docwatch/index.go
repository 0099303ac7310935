package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/otel"
	"github.com/abelbrown/docwatch/internal/store"
)

var flagAllViews bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Record the catalog in the SQLite index",
	Long: "Scan the data directory and replace the indexed documents of the view " +
		"(both views with --all). `docwatch browse --from-index` reads the result.",
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagAllViews, "all", false, "index both the raw and the analyzed view")
}

func runIndex(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer st.Close()

	views := []string{cfg.Browse.View}
	if flagAllViews {
		views = []string{catalog.ViewRaw, catalog.ViewAnalyzed}
	}

	var errs []error
	for _, view := range views {
		n, err := indexView(st, cfg.DataDir, view)
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", view, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %d documents indexed\n", view, n)
	}
	return errors.Join(errs...)
}

// indexView scans one view and swaps its rows in the index. A failed scan is
// recorded so browse --from-index can report it.
func indexView(st *store.Store, root, view string) (int, error) {
	start := time.Now()
	cat, err := catalog.Scan(root, view)
	if err != nil {
		if rerr := st.RecordScan(view, 0, err.Error()); rerr != nil {
			logging.Warn("record failed scan", "view", view, "err", rerr)
		}
		events.Error(otel.KindScanError, "catalog", err)
		return 0, err
	}

	var records []store.Record
	for _, v := range cat.Vendors {
		if v.Err != nil {
			logging.Warn("vendor skipped", "vendor", v.Name, "err", v.Err)
			continue
		}
		for _, t := range v.Types {
			for _, d := range t.Docs {
				records = append(records, store.FromDocument(view, d))
			}
		}
	}

	if err := st.ReplaceView(view, records); err != nil {
		events.Error(otel.KindStoreErr, "store", err)
		return 0, fmt.Errorf("index %s: %w", view, err)
	}
	events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindIndex, Comp: "store",
		Dur: time.Since(start), Count: len(records), Msg: view,
	})
	return len(records), nil
}
