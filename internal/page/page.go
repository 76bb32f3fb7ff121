// Package page implements the in-memory representation of one fixed
// size slot of the segment file: a buffer, a dirty flag, a
// last-used counter for LRU eviction, and a write watermark.
package page

import "fmt"

// Page is one page_size-byte slot of the segment file, resident in
// the page cache.
type Page struct {
	ID     uint64
	Data   []byte
	Dirty  bool
	LastUsed uint64

	// Watermark is the first unused byte offset within Data. Bytes in
	// [0, Watermark) are defined; bytes in [Watermark, len(Data)) are
	// logically unused.
	Watermark int
}

// New creates a fresh page: zeroed buffer, dirty, watermark at zero.
func New(id uint64, pageSize int, lastUsed uint64) *Page {
	return &Page{
		ID:       id,
		Data:     make([]byte, pageSize),
		Dirty:    true,
		LastUsed: lastUsed,
	}
}

// Open constructs a page from a buffer loaded off disk. Not dirty;
// watermark is whatever the caller recomputed (see FindWatermark).
func Open(id uint64, buf []byte, lastUsed uint64, watermark int) *Page {
	return &Page{
		ID:        id,
		Data:      buf,
		Dirty:     false,
		LastUsed:  lastUsed,
		Watermark: watermark,
	}
}

// Write copies bytes into the page starting at the current watermark,
// advances the watermark, and marks the page dirty. Returns the
// offset within the page where the bytes begin. Panics if the bytes
// do not fit — the caller (the page cache) must guarantee fit before
// calling.
func (p *Page) Write(data []byte) (localOffset int) {
	if p.Watermark+len(data) > len(p.Data) {
		panic(fmt.Sprintf("page %d: write of %d bytes at watermark %d overflows page size %d",
			p.ID, len(data), p.Watermark, len(p.Data)))
	}

	localOffset = p.Watermark
	copy(p.Data[localOffset:], data)
	p.Watermark += len(data)
	p.Dirty = true
	return localOffset
}

// Read returns a view of data[offset : offset+size]. The caller must
// guarantee the range lies within previously written bytes.
func (p *Page) Read(offset, size int) []byte {
	return p.Data[offset : offset+size]
}

// Free reports how many bytes remain before the page is full.
func (p *Page) Free() int {
	return len(p.Data) - p.Watermark
}

// FindWatermark recomputes a watermark for a buffer loaded from disk:
// the position just past the last nonzero byte, or 0 if the buffer is
// entirely zero. This is the heuristic fallback spec.md's Open
// Questions §9.2 calls out — it assumes payloads do not end in a long
// run of zero bytes.
func FindWatermark(buf []byte) int {
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] != 0 {
			return i + 1
		}
	}
	return 0
}
