package walog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogAndReadRecordsInOrder(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, 64, 0, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Log("a", 0, 3))
	require.NoError(t, w.Log("b", 3, 2))

	records, err := w.ReadRecords()
	require.NoError(t, err)
	require.Equal(t, []string{"a,0,3", "b,3,2"}, records)
}

func TestFindLastExtentTieBreaksOnSize(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, 4096, 0, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Log("a", 0, 3))
	require.NoError(t, w.Log("b", 10, 5))
	require.NoError(t, w.Log("c", 10, 9))

	ext, err := w.FindLastExtent()
	require.NoError(t, err)
	require.Equal(t, uint64(10), ext.Offset)
	require.Equal(t, uint64(9), ext.Size, "largest size wins the tie at the max offset")
}

func TestFindLastExtentEmpty(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, 4096, 0, nil)
	require.NoError(t, err)
	defer w.Close()

	ext, err := w.FindLastExtent()
	require.NoError(t, err)
	require.Equal(t, uint64(0), ext.Offset)
	require.Equal(t, uint64(0), ext.Size)
}

func TestRotationCreatesNewFile(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, 32, 0, nil)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, w.Log("term", uint64(i), 2))
	}

	require.Greater(t, len(w.History()), 1, "writing past size_limit must rotate to a new log file")

	records, err := w.ReadRecords()
	require.NoError(t, err)
	require.Len(t, records, 10)
}

func TestRecoveryReopensSnapshotAndHistory(t *testing.T) {
	dir := t.TempDir()

	w1, err := Open(dir, 32, 0, nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, w1.Log("term", uint64(i), 2))
	}
	require.NoError(t, w1.Close())

	w2, err := Open(dir, 32, 0, nil)
	require.NoError(t, err)
	defer w2.Close()

	records, err := w2.ReadRecords()
	require.NoError(t, err)
	require.Len(t, records, 10)
}

func TestCorruptTailRecordIsSkipped(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, 4096, 0, nil)
	require.NoError(t, err)

	require.NoError(t, w.Log("a", 0, 3))
	// Simulate a torn write: append a truncated line directly.
	_, err = w.file.WriteString("b,3,")
	require.NoError(t, err)
	require.NoError(t, w.file.Sync())
	require.NoError(t, w.Close())

	w2, err := Open(dir, 4096, 1, nil)
	require.NoError(t, err)
	defer w2.Close()

	records, err := w2.ParseRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "a", records[0].Term)
}
