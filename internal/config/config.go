package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Config is the persistent application configuration.
type Config struct {
	// DataDir holds raw/<vendor>/<type>/*.md and analyzed/<vendor>/<type>/*.md.
	DataDir string `json:"data_dir"`

	// DBPath is the SQLite document index.
	DBPath string `json:"db_path"`

	// LogDir receives dated log files and the JSONL event log.
	LogDir   string `json:"log_dir"`
	LogLevel string `json:"log_level"`

	Browse BrowseConfig `json:"browse"`
	Stats  StatsConfig  `json:"stats"`
}

// BrowseConfig tunes the card browser.
type BrowseConfig struct {
	View           string   `json:"view"`             // "raw" or "analyzed"
	Vendor         string   `json:"vendor,omitempty"` // when set, group one vendor's documents by type
	Groups         []string `json:"groups,omitempty"` // pinned group ids, shown in this order
	InitialBatch   int      `json:"initial_batch"`    // cards rendered on reset
	Increment      int      `json:"increment"`        // cards added per load-more
	LoadLatencyMs  int      `json:"load_latency_ms"`  // simulated load delay
	ResizeDebounce int      `json:"resize_debounce_ms"`
	MobileMaxWidth int      `json:"mobile_max_width"` // columns at or below which the compact layout applies
	Locale         string   `json:"locale"`           // BCP 47 tag for title collation
	DefaultSort    string   `json:"default_sort"`
}

// StatsConfig configures the statistics endpoint.
type StatsConfig struct {
	Addr string `json:"addr"` // listen address for `docwatch serve`
	URL  string `json:"url"`  // base URL used by `docwatch stats`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  filepath.Join(xdg.DataHome, "docwatch", "data"),
		DBPath:   filepath.Join(xdg.DataHome, "docwatch", "docwatch.db"),
		LogDir:   filepath.Join(xdg.StateHome, "docwatch", "logs"),
		LogLevel: "info",
		Browse: BrowseConfig{
			View:           "raw",
			InitialBatch:   20,
			Increment:      20,
			LoadLatencyMs:  300,
			ResizeDebounce: 250,
			MobileMaxWidth: 80,
			Locale:         "und",
			DefaultSort:    "date-desc",
		},
		Stats: StatsConfig{
			Addr: "127.0.0.1:8089",
			URL:  "http://127.0.0.1:8089",
		},
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "docwatch", "config.json")
}

// Load reads the config file at path (ConfigPath when empty). A missing file
// yields defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.AutoPopulateFromEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes the config as indented JSON to path (ConfigPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// AutoPopulateFromEnv applies DOCWATCH_* environment overrides.
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv("DOCWATCH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DOCWATCH_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("DOCWATCH_STATS_ADDR"); v != "" {
		c.Stats.Addr = v
	}
	if v := os.Getenv("DOCWATCH_STATS_URL"); v != "" {
		c.Stats.URL = v
	}
	if v := os.Getenv("DOCWATCH_LOCALE"); v != "" {
		c.Browse.Locale = v
	}
	if v := os.Getenv("DOCWATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v, err := strconv.Atoi(os.Getenv("DOCWATCH_BATCH")); err == nil && v > 0 {
		c.Browse.InitialBatch = v
		c.Browse.Increment = v
	}
}

// normalize replaces zero or negative tuning values with defaults so a
// partial config file still yields a usable browser.
func (c *Config) normalize() {
	d := DefaultConfig().Browse
	if c.Browse.InitialBatch <= 0 {
		c.Browse.InitialBatch = d.InitialBatch
	}
	if c.Browse.Increment <= 0 {
		c.Browse.Increment = d.Increment
	}
	if c.Browse.LoadLatencyMs < 0 {
		c.Browse.LoadLatencyMs = 0
	}
	if c.Browse.ResizeDebounce <= 0 {
		c.Browse.ResizeDebounce = d.ResizeDebounce
	}
	if c.Browse.MobileMaxWidth <= 0 {
		c.Browse.MobileMaxWidth = d.MobileMaxWidth
	}
	if c.Browse.Locale == "" {
		c.Browse.Locale = d.Locale
	}
	if c.Browse.View == "" {
		c.Browse.View = d.View
	}
	if c.Browse.DefaultSort == "" {
		c.Browse.DefaultSort = d.DefaultSort
	}
}

// LoadLatency is the simulated load-more delay.
func (b BrowseConfig) LoadLatency() time.Duration {
	return time.Duration(b.LoadLatencyMs) * time.Millisecond
}

// DebounceWindow is the trailing resize debounce window.
func (b BrowseConfig) DebounceWindow() time.Duration {
	return time.Duration(b.ResizeDebounce) * time.Millisecond
}
