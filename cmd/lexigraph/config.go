package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// config holds everything the core and front end need to construct a
// store. defaultConfig supplies the hardcoded defaults and loadConfig
// overlays the hujson file on them; no command-line flag overrides
// these fields.
type config struct {
	DataDir      string `json:"data_dir"`
	PageSize     int    `json:"page_size"`
	CacheCap     int    `json:"cache_capacity"`
	WALSizeLimit int    `json:"wal_size_limit"`
	WALStartIdx  int    `json:"wal_start_index"`
	HotTerms     int    `json:"hot_terms"`
}

func defaultConfig() config {
	return config{
		DataDir:      "./data",
		PageSize:     4096,
		CacheCap:     256,
		WALSizeLimit: 4096,
		WALStartIdx:  0,
		HotTerms:     256,
	}
}

// loadConfig reads a hujson (JSON-with-comments) config file if
// present, overlaying it on the defaults. A missing file is not an
// error — the defaults stand alone.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}

	standard, err := hujson.Standardize(data)
	if err != nil {
		return cfg, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := json.Unmarshal(standard, &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %q: %w", path, err)
	}
	return cfg, nil
}
