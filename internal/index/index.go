// Package index is the in-memory inverted-index front end: it
// buffers term->doc-id postings, LRU-evicts hot terms to the segment
// store, encodes posting lists as bytes, and maintains the doc-id to
// path side file. spec.md §1 places this front end out of the core's
// scope, specified only by contract; SPEC_FULL.md §11 grounds its
// term cache on the pack's hashicorp/golang-lru usage.
package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/segment"
	"github.com/lexigraph/lexigraph/internal/tokenizer"
)

const defaultHotTerms = 256

// Index is the front end wired to a segment.Store.
type Index struct {
	store *segment.Store
	hot   *lru.Cache // term -> *postingBuffer, evicted entries flush to store

	docs     map[uint32]string
	docsPath string
	nextID   uint32

	log *zap.Logger
}

// postingBuffer accumulates doc ids for a term that have not yet been
// flushed to the segment store.
type postingBuffer struct {
	docIDs []uint32
}

// Options configures a new Index.
type Options struct {
	DocsPath string // side file mapping doc-id -> path
	HotTerms int    // LRU capacity for buffered terms; 0 uses a default
	Logger   *zap.Logger
}

// Open wires an Index to an already-open segment.Store and loads the
// docs side file, if present.
func Open(store *segment.Store, opts Options) (*Index, error) {
	if opts.HotTerms <= 0 {
		opts.HotTerms = defaultHotTerms
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	idx := &Index{
		store:    store,
		docs:     make(map[uint32]string),
		docsPath: opts.DocsPath,
		log:      log,
	}

	cache, err := lru.NewWithEvict(opts.HotTerms, idx.onEvict)
	if err != nil {
		return nil, fmt.Errorf("index: new lru cache: %w", err)
	}
	idx.hot = cache

	if opts.DocsPath != "" {
		if err := idx.loadDocs(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// onEvict is the golang-lru eviction callback: it flushes the evicted
// term's buffered postings through to the segment store.
func (idx *Index) onEvict(key, value interface{}) {
	term := key.(string)
	buf := value.(*postingBuffer)
	if err := idx.flushTerm(term, buf); err != nil {
		idx.log.Warn("failed to flush evicted term", zap.String("term", term), zap.Error(err))
	}
}

// AddDocument tokenizes content, assigns it the next doc id, buffers
// a posting for every distinct term it contains, and records the
// doc-id -> path mapping.
func (idx *Index) AddDocument(path, content string) uint32 {
	docID := idx.nextID
	idx.nextID++
	idx.docs[docID] = path

	seen := make(map[string]bool)
	for _, term := range tokenizer.Tokenize(content) {
		if seen[term] {
			continue
		}
		seen[term] = true
		idx.bufferPosting(term, docID)
	}

	return docID
}

func (idx *Index) bufferPosting(term string, docID uint32) {
	if v, ok := idx.hot.Get(term); ok {
		buf := v.(*postingBuffer)
		buf.docIDs = append(buf.docIDs, docID)
		return
	}
	idx.hot.Add(term, &postingBuffer{docIDs: []uint32{docID}})
}

// flushTerm encodes a term's buffered doc ids as a varint list and
// writes them through the segment store as one extent.
func (idx *Index) flushTerm(term string, buf *postingBuffer) error {
	if len(buf.docIDs) == 0 {
		return nil
	}
	_, _, err := idx.store.Write(term, encodePostings(buf.docIDs))
	return err
}

// Sync flushes every still-buffered term and the underlying store,
// then persists the docs side file.
func (idx *Index) Sync() error {
	for _, key := range idx.hot.Keys() {
		v, ok := idx.hot.Peek(key)
		if !ok {
			continue
		}
		if err := idx.flushTerm(key.(string), v.(*postingBuffer)); err != nil {
			return err
		}
	}
	idx.hot.Purge()

	if err := idx.store.Sync(); err != nil {
		return err
	}
	if idx.docsPath != "" {
		return idx.persistDocs()
	}
	return nil
}

// Search returns the paths of every document containing term: any
// still-buffered doc ids plus everything already committed to the
// segment store.
func (idx *Index) Search(term string) ([]string, error) {
	docIDs := map[uint32]bool{}

	if v, ok := idx.hot.Peek(term); ok {
		for _, id := range v.(*postingBuffer).docIDs {
			docIDs[id] = true
		}
	}

	buffers, err := idx.store.Read(term)
	if err != nil {
		if len(docIDs) == 0 {
			return nil, err
		}
	} else {
		for _, b := range buffers {
			ids, err := decodePostings(b)
			if err != nil {
				return nil, fmt.Errorf("index: decode postings for %q: %w", term, err)
			}
			for _, id := range ids {
				docIDs[id] = true
			}
		}
	}

	paths := make([]string, 0, len(docIDs))
	for id := range docIDs {
		if path, ok := idx.docs[id]; ok {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// encodePostings packs doc ids as a varint-delimited list, smallest
// stdlib-idiomatic encoding for a sequence of small nonnegative
// integers (see SPEC_FULL.md §11 for why this stays stdlib-only).
func encodePostings(docIDs []uint32) []byte {
	var buf []byte
	for _, id := range docIDs {
		buf = binary.AppendUvarint(buf, uint64(id))
	}
	return buf
}

func decodePostings(data []byte) ([]uint32, error) {
	var ids []uint32
	for len(data) > 0 {
		v, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, fmt.Errorf("malformed posting list")
		}
		ids = append(ids, uint32(v))
		data = data[n:]
	}
	return ids, nil
}

// persistDocs atomically writes the doc-id -> path mapping as
// "id\tpath" lines, so a crash mid-write cannot truncate docs.bin.
func (idx *Index) persistDocs() error {
	var sb strings.Builder
	for id, path := range idx.docs {
		fmt.Fprintf(&sb, "%d\t%s\n", id, path)
	}
	return atomic.WriteFile(idx.docsPath, strings.NewReader(sb.String()))
}

func (idx *Index) loadDocs() error {
	f, err := os.Open(idx.docsPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: open docs side file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var maxID uint32
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		id, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			continue
		}
		idx.docs[uint32(id)] = parts[1]
		if uint32(id) >= maxID {
			maxID = uint32(id) + 1
		}
	}
	idx.nextID = maxID
	return scanner.Err()
}

// DocCount reports how many documents are known, for the stats CLI.
func (idx *Index) DocCount() int {
	return len(idx.docs)
}
