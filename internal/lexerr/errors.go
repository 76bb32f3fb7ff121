// Package lexerr defines the sentinel errors shared across the core
// store so callers can classify failures with errors.Is instead of
// string matching.
package lexerr

import "errors"

var (
	// ErrNotFound means a term has no recorded extents, or a WAL
	// snapshot file is absent.
	ErrNotFound = errors.New("lexigraph: not found")

	// ErrCorruptRecord means a WAL line did not parse as
	// "term,offset,size" with valid nonnegative integers.
	ErrCorruptRecord = errors.New("lexigraph: corrupt wal record")

	// ErrCapacityExceeded means a payload is larger than page_size and
	// the store refuses to span it across pages.
	ErrCapacityExceeded = errors.New("lexigraph: payload exceeds page size")
)
