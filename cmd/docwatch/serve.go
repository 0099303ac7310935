package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/stats"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coverage report over HTTP",
	Long:  "Serve GET /api/stats[?detailed=true] and GET /api/stats/missing, computed from the data directory on every request.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default from config)")
}

// localReport scans both views and compares them. A missing analyzed view
// counts as nothing analysed.
func localReport(detailed bool) (stats.Report, error) {
	raw, err := catalog.Scan(cfg.DataDir, catalog.ViewRaw)
	if err != nil {
		return stats.Report{}, err
	}
	analyzed, err := catalog.Scan(cfg.DataDir, catalog.ViewAnalyzed)
	if err != nil {
		logging.Warn("analyzed view unavailable", "err", err)
		analyzed = nil
	}
	return stats.Compute(raw, analyzed, detailed), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Stats.Addr
	if flagAddr != "" {
		addr = flagAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           stats.NewServer(localReport, events),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info("stats server listening", "addr", addr)
		fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logging.Info("stats server stopping")
	return srv.Shutdown(shutdownCtx)
}
