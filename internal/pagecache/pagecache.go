// Package pagecache mediates all byte-level I/O against a single
// segment file through fixed-size pages with LRU-style eviction. It
// is the hard part of the store: offset arithmetic across page
// boundaries, dirty-page flushing, and deterministic eviction all
// compose here, by hand — see SPEC_FULL.md §11 for why this package
// does not reach for a generic cache library the way the front-end
// term cache does.
package pagecache

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/lexerr"
	"github.com/lexigraph/lexigraph/internal/page"
)

// Extent is the file offset and size, in bytes, of the most recently
// committed write — the segment's current tail.
type Extent struct {
	Offset uint64
	Size   uint64
}

// Manager owns the segment file and a bounded set of resident pages.
type Manager struct {
	file     *os.File
	pageSize int
	cap      int

	resident map[uint64]*page.Page

	nextPageID   uint64
	usageCounter uint64
	lastExtent   Extent

	// tailID is the page id most recently appended to, if any.
	tailID    uint64
	hasTail   bool

	log *zap.Logger

	hits, misses, evictions uint64
}

// Open opens (creating if needed) the segment file for read+write.
// lastExtent is the (offset, size) of the most recently committed
// extent as recovered from the WAL; next_page_id is derived from it
// so appends continue past the tail.
func Open(path string, pageSize, capacity int, lastExtent Extent, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("pagecache: open segment file %q: %w", path, err)
	}

	m := &Manager{
		file:       f,
		pageSize:   pageSize,
		cap:        capacity,
		resident:   make(map[uint64]*page.Page, capacity),
		lastExtent: lastExtent,
		log:        log,
	}

	if lastExtent.Offset == 0 && lastExtent.Size == 0 {
		m.nextPageID = 0
	} else {
		m.nextPageID = lastExtent.Offset/uint64(pageSize) + 1
	}

	return m, nil
}

// Write appends data logically to the segment, returning the global
// offset the extent begins at, the new tail offset (first free byte
// after the write), and the size written.
func (m *Manager) Write(data []byte) (globalOffset, newTail uint64, size int, err error) {
	if len(data) > m.pageSize {
		return 0, 0, 0, fmt.Errorf("pagecache: write of %d bytes: %w", len(data), lexerr.ErrCapacityExceeded)
	}

	if m.hasTail {
		if tp, ok := m.resident[m.tailID]; ok && tp.Free() >= len(data) {
			inPageOffset := tp.Watermark
			tp.Write(data)
			m.touch(tp)
			globalOffset = tp.ID*uint64(m.pageSize) + uint64(inPageOffset)
			newTail = tp.ID*uint64(m.pageSize) + uint64(tp.Watermark)
			return globalOffset, newTail, len(data), nil
		}
	}

	if len(m.resident) >= m.cap {
		if err := m.evict(); err != nil {
			return 0, 0, 0, err
		}
	}

	id := m.nextPageID
	m.nextPageID++
	np := page.New(id, m.pageSize, m.nextUsage())
	np.Write(data)
	if err := m.flush(np); err != nil {
		return 0, 0, 0, err
	}
	m.resident[id] = np
	m.tailID = id
	m.hasTail = true

	globalOffset = id * uint64(m.pageSize)
	newTail = id*uint64(m.pageSize) + uint64(np.Watermark)
	return globalOffset, newTail, len(data), nil
}

// Read returns a copy of size bytes starting at offset.
func (m *Manager) Read(offset uint64, size int) ([]byte, error) {
	id := offset / uint64(m.pageSize)
	inPageOffset := int(offset % uint64(m.pageSize))

	p, ok := m.resident[id]
	if ok {
		m.hits++
	} else {
		loaded, err := m.load(id)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	m.touch(p)

	if isRangeUnwritten(p.Data[inPageOffset:inPageOffset+size]) {
		if err := m.refresh(p, inPageOffset, size); err != nil {
			return nil, err
		}
	}

	out := make([]byte, size)
	copy(out, p.Read(inPageOffset, size))
	return out, nil
}

// isRangeUnwritten is the "is_page_bytes_written" heuristic from
// spec.md §4.2: unsound in general (a payload can legitimately contain
// zero bytes), kept only as the fallback the spec allows.
func isRangeUnwritten(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	zero := 0
	for _, c := range b {
		if c == 0 {
			zero++
		}
	}
	return zero*2 > len(b)
}

func (m *Manager) refresh(p *page.Page, offset, size int) error {
	buf := make([]byte, size)
	if _, err := m.file.ReadAt(buf, int64(p.ID)*int64(m.pageSize)+int64(offset)); err != nil {
		return fmt.Errorf("pagecache: refresh page %d: %w", p.ID, err)
	}
	copy(p.Data[offset:offset+size], buf)
	return nil
}

// load reads page id off disk, inserts it as resident (evicting if
// necessary), and returns it. The tail page's on-disk region can be
// shorter than pageSize (flush only ever writes [0,Watermark)), so a
// short read ending in io.EOF is expected, not an error — the
// unwritten remainder of buf is already zero, matching the page's
// on-disk layout.
func (m *Manager) load(id uint64) (*page.Page, error) {
	m.misses++

	buf := make([]byte, m.pageSize)
	if _, err := m.file.ReadAt(buf, int64(id)*int64(m.pageSize)); err != nil && err != io.EOF {
		return nil, fmt.Errorf("pagecache: load page %d: %w", id, err)
	}

	if len(m.resident) >= m.cap {
		if err := m.evict(); err != nil {
			return nil, err
		}
	}

	p := page.Open(id, buf, m.nextUsage(), page.FindWatermark(buf))
	m.resident[id] = p
	return p, nil
}

// evict selects the resident page with the smallest LastUsed,
// flushing it if dirty, and removes it. Ties break on the lowest
// page_id to keep behavior deterministic.
func (m *Manager) evict() error {
	var victim *page.Page
	for _, p := range m.resident {
		if victim == nil || p.LastUsed < victim.LastUsed ||
			(p.LastUsed == victim.LastUsed && p.ID < victim.ID) {
			victim = p
		}
	}
	if victim == nil {
		return nil
	}

	if victim.Dirty {
		if err := m.flush(victim); err != nil {
			return err
		}
	}
	delete(m.resident, victim.ID)
	if m.hasTail && victim.ID == m.tailID {
		m.hasTail = false
	}
	m.evictions++
	m.log.Debug("evicted page", zap.Uint64("page_id", victim.ID))
	return nil
}

// flush writes a dirty page's defined bytes [0, Watermark) to disk
// and clears its dirty flag. No-op for a clean page.
func (m *Manager) flush(p *page.Page) error {
	if !p.Dirty {
		return nil
	}
	if _, err := m.file.WriteAt(p.Data[:p.Watermark], int64(p.ID)*int64(m.pageSize)); err != nil {
		return fmt.Errorf("pagecache: flush page %d: %w", p.ID, err)
	}
	p.Dirty = false
	return nil
}

// FlushAll flushes every dirty resident page.
func (m *Manager) FlushAll() error {
	for _, p := range m.resident {
		if err := m.flush(p); err != nil {
			return err
		}
	}
	return m.file.Sync()
}

// UpdateLastExtent records the append cursor after the most recently
// durably-logged write, called by the segment store after a
// successful WAL append with the new tail offset (first free byte
// after the write) and the write's size.
func (m *Manager) UpdateLastExtent(offset, size uint64) {
	m.lastExtent = Extent{Offset: offset, Size: size}
}

// LastExtent returns the most recently recorded extent.
func (m *Manager) LastExtent() Extent {
	return m.lastExtent
}

// Close flushes and closes the backing segment file.
func (m *Manager) Close() error {
	if err := m.FlushAll(); err != nil {
		return err
	}
	return m.file.Close()
}

// Stats reports cache hit/miss/eviction counters and resident size,
// the domain equivalent of the teacher's BufferPoolStats.
type Stats struct {
	Capacity   int
	Resident   int
	Hits       uint64
	Misses     uint64
	Evictions  uint64
}

func (m *Manager) Stats() Stats {
	return Stats{
		Capacity:  m.cap,
		Resident:  len(m.resident),
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
	}
}

func (m *Manager) touch(p *page.Page) {
	p.LastUsed = m.nextUsage()
}

func (m *Manager) nextUsage() uint64 {
	m.usageCounter++
	return m.usageCounter
}
