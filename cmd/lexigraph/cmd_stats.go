package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func runStats(args []string, log *zap.Logger) error {
	fs := pflag.NewFlagSet("stats", pflag.ExitOnError)
	configPath := fs.String("config", "lexigraph.hujson", "path to a hujson config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	store, idx, err := openIndex(cfg, log)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer store.Close()

	stats := store.CacheStats()
	fmt.Println("Page cache:")
	fmt.Printf("  capacity:  %d pages\n", stats.Capacity)
	fmt.Printf("  resident:  %d pages\n", stats.Resident)
	fmt.Printf("  hits:      %d\n", stats.Hits)
	fmt.Printf("  misses:    %d\n", stats.Misses)
	fmt.Printf("  evictions: %d\n", stats.Evictions)

	fmt.Println("\nIndex:")
	fmt.Printf("  terms:     %d\n", store.TermCount())
	fmt.Printf("  documents: %d\n", idx.DocCount())

	segPath := filepath.Join(cfg.DataDir, "index.seg")
	if info, err := os.Stat(segPath); err == nil {
		fmt.Printf("  segment file: %s (%s)\n", segPath, humanize.Bytes(uint64(info.Size())))
	}

	return nil
}
