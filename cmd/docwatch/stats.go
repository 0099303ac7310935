package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/docwatch/internal/otel"
	"github.com/abelbrown/docwatch/internal/stats"
)

var (
	flagStatsURL string
	flagMissing  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print raw vs analysed coverage per vendor and type",
	Long: "Print the coverage table. With --url the report is fetched from a running " +
		"`docwatch serve`; otherwise it is computed from the data directory.",
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&flagStatsURL, "url", "", "fetch from this docwatch serve base URL")
	statsCmd.Flags().BoolVar(&flagMissing, "missing", false, "also list documents whose analysis is missing or incomplete")
}

func runStats(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var (
		rep     stats.Report
		missing map[string]map[string][]stats.Missing
		err     error
	)
	if flagStatsURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		client := stats.NewClient(flagStatsURL)
		rep, err = client.Fetch(ctx, false)
		if err == nil && flagMissing {
			missing, err = client.Missing(ctx)
		}
		if err != nil {
			// A failed fetch is a row in the output, not a failed command.
			events.Error(otel.KindStatsError, "stats", err)
			fmt.Fprintln(out, stats.ErrorRow(err))
			return nil
		}
		events.Info(otel.KindStatsFetch, "stats", flagStatsURL)
	} else {
		rep, err = localReport(flagMissing)
		if err != nil {
			return err
		}
		if flagMissing {
			missing = rep.MissingAnalysis()
		}
	}

	fmt.Fprintln(out, stats.Table(rep))
	if flagMissing {
		printMissing(out, missing)
	}
	return nil
}

func printMissing(w io.Writer, missing map[string]map[string][]stats.Missing) {
	if len(missing) == 0 {
		fmt.Fprintln(w, "\nEvery raw document has a complete analysis.")
		return
	}

	vendors := make([]string, 0, len(missing))
	for v := range missing {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)

	fmt.Fprintln(w, "\nMissing analysis:")
	for _, v := range vendors {
		types := make([]string, 0, len(missing[v]))
		for t := range missing[v] {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(w, "  %s/%s (%d)\n", v, t, len(missing[v][t]))
			for _, m := range missing[v][t] {
				state := "no analysis"
				if m.HasAnalysis {
					state = "incomplete"
				}
				fmt.Fprintf(w, "    %-40s %s\n", truncate(m.Title, 40), state)
			}
		}
	}
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
