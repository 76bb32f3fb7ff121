// Package segment layers a term→extents mapping on top of the page
// cache, recording every extent in the write-ahead log before it is
// visible, and rebuilding that mapping from the log on restart.
package segment

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/lexerr"
	"github.com/lexigraph/lexigraph/internal/pagecache"
	"github.com/lexigraph/lexigraph/internal/walog"
)

// extent is one (offset, size) byte range in the segment file.
type extent struct {
	offset uint64
	size   uint64
}

// Store is the segment store of spec.md §4.4: an owned page cache
// manager, an owned WAL, and the in-memory term->extents map rebuilt
// from the WAL at Open.
type Store struct {
	cache *pagecache.Manager
	wal   *walog.WAL

	termOffsets map[string][]extent

	log *zap.Logger
}

// Options configures a new or recovered Store.
type Options struct {
	PageSize     int
	CacheCap     int
	WALSizeLimit int
	WALStartIdx  int
	Logger       *zap.Logger
}

// Open recovers a store rooted at dir: it opens the WAL, replays its
// records to find the segment tail and rebuild term_offsets, then
// opens the page cache positioned at that tail.
func Open(dir string, opts Options) (*Store, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = 4096
	}
	if opts.CacheCap <= 0 {
		opts.CacheCap = 64
	}
	if opts.WALSizeLimit <= 0 {
		opts.WALSizeLimit = walog.DefaultSizeLimit
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	wal, err := walog.Open(dir, opts.WALSizeLimit, opts.WALStartIdx, log)
	if err != nil {
		return nil, fmt.Errorf("segment: open wal: %w", err)
	}

	records, err := wal.ParseRecords()
	if err != nil {
		return nil, fmt.Errorf("segment: replay wal: %w", err)
	}

	lastExtent, err := wal.FindLastExtent()
	if err != nil {
		return nil, fmt.Errorf("segment: find last extent: %w", err)
	}

	segPath := filepath.Join(dir, "index.seg")
	cache, err := pagecache.Open(segPath, opts.PageSize, opts.CacheCap, lastExtent, log)
	if err != nil {
		return nil, fmt.Errorf("segment: open page cache: %w", err)
	}

	termOffsets := make(map[string][]extent)
	for _, r := range records {
		termOffsets[r.Term] = append(termOffsets[r.Term], extent{offset: r.Offset, size: r.Size})
	}

	return &Store{cache: cache, wal: wal, termOffsets: termOffsets, log: log}, nil
}

// Write appends data for term through the page cache, records the
// extent durably in the WAL, then — and only then — makes it visible
// in term_offsets, so a WAL write failure never leaves a phantom
// extent in memory.
func (s *Store) Write(term string, data []byte) (offset uint64, size int, err error) {
	globalOffset, newTail, n, err := s.cache.Write(data)
	if err != nil {
		return 0, 0, fmt.Errorf("segment: page cache write for term %q: %w", term, err)
	}

	if err := s.wal.Log(term, globalOffset, uint64(n)); err != nil {
		return 0, 0, fmt.Errorf("segment: wal log for term %q: %w", term, err)
	}

	s.cache.UpdateLastExtent(newTail, uint64(n))
	s.termOffsets[term] = append(s.termOffsets[term], extent{offset: globalOffset, size: uint64(n)})

	return globalOffset, n, nil
}

// Read returns, in insertion order, one buffer per recorded extent
// for term. A per-extent read failure is logged and the extent is
// skipped rather than failing the whole call. Returns ErrNotFound
// only when term has no extents at all.
func (s *Store) Read(term string) ([][]byte, error) {
	extents, ok := s.termOffsets[term]
	if !ok {
		return nil, fmt.Errorf("segment: term %q: %w", term, lexerr.ErrNotFound)
	}

	out := make([][]byte, 0, len(extents))
	for _, e := range extents {
		buf, err := s.cache.Read(e.offset, int(e.size))
		if err != nil {
			s.log.Warn("skipping unreadable extent",
				zap.String("term", term), zap.Uint64("offset", e.offset), zap.Error(err))
			continue
		}
		out = append(out, buf)
	}
	return out, nil
}

// Sync flushes all dirty pages to disk.
func (s *Store) Sync() error {
	return s.cache.FlushAll()
}

// Close flushes the page cache and closes the WAL and segment file.
func (s *Store) Close() error {
	if err := s.cache.Close(); err != nil {
		return err
	}
	return s.wal.Close()
}

// CacheStats exposes the underlying page cache's hit/miss/eviction
// counters for the stats CLI and the metrics exporter.
func (s *Store) CacheStats() pagecache.Stats {
	return s.cache.Stats()
}

// TermCount reports how many distinct terms currently have extents,
// used by the stats CLI.
func (s *Store) TermCount() int {
	return len(s.termOffsets)
}
