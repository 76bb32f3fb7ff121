package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/index"
	"github.com/lexigraph/lexigraph/internal/segment"
)

// openIndex opens (creating directories as needed) the segment store
// and the front-end index described by cfg, the way the teacher's
// database.Open wires a Pager + BufferPool + BPTree together.
func openIndex(cfg config, log *zap.Logger) (*segment.Store, *index.Index, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, nil, err
	}

	store, err := segment.Open(cfg.DataDir, segment.Options{
		PageSize:     cfg.PageSize,
		CacheCap:     cfg.CacheCap,
		WALSizeLimit: cfg.WALSizeLimit,
		WALStartIdx:  cfg.WALStartIdx,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, err
	}

	idx, err := index.Open(store, index.Options{
		DocsPath: filepath.Join(cfg.DataDir, "docs.bin"),
		HotTerms: cfg.HotTerms,
		Logger:   log,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return store, idx, nil
}
