package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestUncleanRestartDropsTruncatedTail simulates a process killed
// mid-append: the last WAL record is torn (no trailing newline, no
// size field) as if os.Exit landed between the offset write and the
// size write. Recovery must skip it and keep everything that
// committed cleanly, per spec.md §8 invariant 3.
func TestUncleanRestartDropsTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)

	_, _, err := s.Write("a", []byte{1, 2, 3})
	require.NoError(t, err)
	_, _, err = s.Write("b", []byte{4, 5})
	require.NoError(t, err)
	require.NoError(t, s.cache.FlushAll())

	// Torn write: append a truncated record directly to the current
	// log file without the WAL's own bookkeeping, as an unclean
	// shutdown would leave behind.
	current := s.wal.History()[len(s.wal.History())-1]
	f, err := os.OpenFile(current, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("c,6,")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s2 := openStore(t, dir)
	defer s2.Close()

	got, err := s2.Read("a")
	require.NoError(t, err)
	if diff := cmp.Diff([][]byte{{1, 2, 3}}, got); diff != "" {
		t.Fatalf("recovered extents for %q mismatch (-want +got):\n%s", "a", diff)
	}

	got, err = s2.Read("b")
	require.NoError(t, err)
	if diff := cmp.Diff([][]byte{{4, 5}}, got); diff != "" {
		t.Fatalf("recovered extents for %q mismatch (-want +got):\n%s", "b", diff)
	}

	_, err = s2.Read("c")
	require.Error(t, err, "truncated record must not surface as a committed extent")
}

func TestSegmentFileHasNoHeader(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	defer s.Close()

	_, _, err := s.Write("a", []byte{7, 7, 7})
	require.NoError(t, err)
	require.NoError(t, s.cache.FlushAll())

	raw, err := os.ReadFile(filepath.Join(dir, "index.seg"))
	require.NoError(t, err)
	if diff := cmp.Diff([]byte{7, 7, 7}, raw[0:3]); diff != "" {
		t.Fatalf("on-disk payload mismatch (-want +got):\n%s", diff)
	}
}
