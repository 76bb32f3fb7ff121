// Package walog implements the write-ahead log: a durability record
// of every committed (term, offset, size) extent, written before the
// segment store considers that extent visible. It rotates across
// ./logger/wal{N}.log files by size and snapshots its own metadata so
// a new process can resume without scanning the directory.
package walog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/lexerr"
	"github.com/lexigraph/lexigraph/internal/pagecache"
)

const (
	dirName      = "logger"
	snapshotName = "wal.bin"
	// DefaultSizeLimit is the rotation threshold in bytes, chosen the
	// same order of magnitude as spec.md §6's documented default.
	DefaultSizeLimit = 4096
)

// WAL is the write-ahead log described in spec.md §4.3.
type WAL struct {
	dir       string
	sizeLimit int
	index     int
	current   string
	history   []string

	file *os.File
	log  *zap.Logger
}

// snapshot is the serialized form of WAL metadata persisted at
// ./wal.bin so recovery does not need to scan the logger directory.
type snapshot struct {
	SizeLimit int      `json:"size_limit"`
	Index     int      `json:"index"`
	Current   string   `json:"current"`
	History   []string `json:"history"`
}

// Open recovers a WAL from its snapshot file if present, or starts a
// fresh one rooted at dir with the given size limit and start index.
func Open(dir string, sizeLimit, startIndex int, log *zap.Logger) (*WAL, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Join(dir, dirName), 0755); err != nil {
		return nil, fmt.Errorf("walog: create logger dir: %w", err)
	}

	w := &WAL{dir: dir, sizeLimit: sizeLimit, log: log}

	snapPath := filepath.Join(dir, snapshotName)
	if snap, err := loadSnapshot(snapPath); err == nil {
		w.sizeLimit = snap.SizeLimit
		w.index = snap.Index
		w.current = snap.Current
		w.history = snap.History
		f, err := os.OpenFile(w.current, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("walog: reopen current log %q: %w", w.current, err)
		}
		w.file = f
		return w, nil
	}

	w.index = startIndex
	if err := w.newSegment(); err != nil {
		return nil, err
	}
	if err := w.persistSnapshot(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WAL) newSegment() error {
	path := filepath.Join(w.dir, dirName, fmt.Sprintf("wal%d.log", w.index))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("walog: create log file %q: %w", path, err)
	}
	if w.file != nil {
		w.file.Close()
	}
	w.file = f
	w.current = path
	w.history = append(w.history, path)
	w.index++
	return nil
}

// Log appends "term,offset,size\n" to the current log file, rotating
// first if the write would exceed the size limit.
func (w *WAL) Log(term string, offset, size uint64) error {
	if strings.Contains(term, ",") {
		return fmt.Errorf("walog: term %q contains a comma", term)
	}

	if w.file == nil {
		if err := w.newSegment(); err != nil {
			return err
		}
	}

	record := fmt.Sprintf("%s,%d,%d\n", term, offset, size)

	info, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("walog: stat current log: %w", err)
	}
	if info.Size()+int64(len(record)) > int64(w.sizeLimit) {
		if err := w.newSegment(); err != nil {
			return err
		}
		if err := w.persistSnapshot(); err != nil {
			return err
		}
	}

	if _, err := w.file.WriteString(record); err != nil {
		return fmt.Errorf("walog: write record: %w", err)
	}
	return w.file.Sync()
}

// ReadRecords returns every nonempty line across history, in order.
// Missing files are skipped silently, tolerating partial cleanup.
func (w *WAL) ReadRecords() ([]string, error) {
	var records []string
	for _, path := range w.history {
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("walog: open %q: %w", path, err)
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if line != "" {
				records = append(records, line)
			}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("walog: scan %q: %w", path, err)
		}
	}
	return records, nil
}

// ParsedRecord is one parsed "term,offset,size" line.
type ParsedRecord struct {
	Term   string
	Offset uint64
	Size   uint64
}

// parse splits and validates a single WAL line.
func parse(line string) (ParsedRecord, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return ParsedRecord{}, lexerr.ErrCorruptRecord
	}
	offset, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return ParsedRecord{}, lexerr.ErrCorruptRecord
	}
	size, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return ParsedRecord{}, lexerr.ErrCorruptRecord
	}
	return ParsedRecord{Term: parts[0], Offset: offset, Size: size}, nil
}

// ParseRecords parses every record from ReadRecords, skipping and
// logging any line that fails to parse (e.g. a truncated tail after
// an unclean shutdown) rather than failing recovery outright.
func (w *WAL) ParseRecords() ([]ParsedRecord, error) {
	lines, err := w.ReadRecords()
	if err != nil {
		return nil, err
	}

	parsed := make([]ParsedRecord, 0, len(lines))
	for _, line := range lines {
		rec, err := parse(line)
		if err != nil {
			w.log.Warn("skipping corrupt wal record", zap.String("line", line), zap.Error(err))
			continue
		}
		parsed = append(parsed, rec)
	}
	return parsed, nil
}

// FindLastExtent returns the (offset, size) with the maximum offset
// across all parsed records, tie-breaking on the largest size so
// recovery is deterministic (spec.md §9 Open Question 4). Returns the
// zero extent if there are no records.
func (w *WAL) FindLastExtent() (pagecache.Extent, error) {
	records, err := w.ParseRecords()
	if err != nil {
		return pagecache.Extent{}, err
	}

	var best pagecache.Extent
	for _, r := range records {
		if r.Offset > best.Offset || (r.Offset == best.Offset && r.Size > best.Size) {
			best = pagecache.Extent{Offset: r.Offset, Size: r.Size}
		}
	}
	return best, nil
}

// persistSnapshot writes WAL metadata to ./wal.bin via an atomic
// rename so a crash mid-write can never corrupt the file the next
// Open depends on.
func (w *WAL) persistSnapshot() error {
	snap := snapshot{
		SizeLimit: w.sizeLimit,
		Index:     w.index,
		Current:   w.current,
		History:   append([]string(nil), w.history...),
	}
	data, err := marshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("walog: marshal snapshot: %w", err)
	}

	path := filepath.Join(w.dir, snapshotName)
	if err := atomic.WriteFile(path, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("walog: write snapshot %q: %w", path, err)
	}
	return nil
}

func loadSnapshot(path string) (snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot{}, lexerr.ErrNotFound
	}
	return unmarshalSnapshot(data)
}

// Close flushes and closes the current log file.
func (w *WAL) Close() error {
	if w.file == nil {
		return nil
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("walog: sync on close: %w", err)
	}
	return w.file.Close()
}

// History returns the ordered list of log file paths, current session
// plus any inherited from a prior one.
func (w *WAL) History() []string {
	return append([]string(nil), w.history...)
}

func marshalSnapshot(s snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func unmarshalSnapshot(data []byte) (snapshot, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return snapshot{}, fmt.Errorf("walog: unmarshal snapshot: %w", err)
	}
	return s, nil
}
