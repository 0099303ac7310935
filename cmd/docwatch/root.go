package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/abelbrown/docwatch/internal/catalog"
	"github.com/abelbrown/docwatch/internal/config"
	"github.com/abelbrown/docwatch/internal/logging"
	"github.com/abelbrown/docwatch/internal/otel"
)

// ringSize bounds the events kept in memory for the debug overlay.
const ringSize = 256

var (
	flagConfig  string
	flagDataDir string
	flagView    string
)

// Process-wide state prepared by setup and released by teardown.
var (
	cfg       *config.Config
	events    *otel.Logger
	ring      *otel.RingBuffer
	eventFile *os.File
	ranCmd    string
)

var rootCmd = &cobra.Command{
	Use:   "docwatch",
	Short: "Terminal browser for vendor document collections",
	Long: "docwatch lists raw and analysed vendor documents as card groups that load " +
		"incrementally, with a global search, sortable groups and a coverage report.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runBrowse,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to config file (default "+config.ConfigPath()+")")
	pf.StringVar(&flagDataDir, "data", "", "data directory holding raw/ and analyzed/")
	pf.StringVar(&flagView, "view", "", "document view: raw or analyzed")

	addBrowseFlags(rootCmd)
	rootCmd.AddCommand(browseCmd, indexCmd, serveCmd, statsCmd, showCmd, eventsCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docwatch %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// setup loads the config, applies flag overrides and starts both loggers.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagView != "" {
		cfg.Browse.View = flagView
	}
	if !catalog.ValidView(cfg.Browse.View) {
		return fmt.Errorf("%w: %q", catalog.ErrNoView, cfg.Browse.View)
	}

	if err := logging.Init(cfg.LogDir, logging.ParseLevel(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	ring = otel.NewRingBuffer(ringSize)
	eventFile, err = os.OpenFile(eventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logging.Warn("event log unavailable", "err", err)
		events = otel.NewNullLogger()
	} else {
		events = otel.NewLogger(eventFile)
	}
	events.SetRingBuffer(ring)
	ranCmd = cmd.Name()
	events.Info(otel.KindStartup, "main", ranCmd)
	logging.Info("command", "name", cmd.Name(), "data", cfg.DataDir, "view", cfg.Browse.View)
	return nil
}

// run executes the root command and always releases what setup opened,
// including when the command returns an error.
func run() error {
	defer teardown()
	return rootCmd.Execute()
}

// teardown flushes the event log and closes both loggers. A no-op when
// setup never ran.
func teardown() {
	if events == nil {
		return
	}
	events.Info(otel.KindShutdown, "main", ranCmd)
	events.Close()
	if eventFile != nil {
		eventFile.Close()
	}
	logging.Close()
	events, eventFile, ranCmd = nil, nil, ""
}

// eventLogPath returns <log dir>/docwatch.events.jsonl.
func eventLogPath() string {
	dir := config.DefaultConfig().LogDir
	if cfg != nil && cfg.LogDir != "" {
		dir = cfg.LogDir
	}
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "docwatch.events.jsonl")
}

// locale parses the configured collation locale, falling back to und.
func locale() language.Tag {
	tag, err := language.Parse(cfg.Browse.Locale)
	if err != nil {
		logging.Warn("bad locale, using und", "locale", cfg.Browse.Locale, "err", err)
		return language.Und
	}
	return tag
}
