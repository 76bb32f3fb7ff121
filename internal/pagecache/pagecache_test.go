package pagecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, pageSize, cap int) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.seg")
	m, err := Open(path, pageSize, cap, Extent{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, path
}

func TestSingleWriteReadBack(t *testing.T) {
	m, path := open(t, 16, 2)

	off, tail, size, err := m.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)
	require.Equal(t, uint64(3), tail)
	require.Equal(t, 3, size)

	got, err := m.Read(0, 3)
	require.NoError(t, err)
	if diff := cmp.Diff([]byte{1, 2, 3}, got); diff != "" {
		t.Fatalf("read mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, m.FlushAll())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff([]byte{1, 2, 3}, raw[0:3]); diff != "" {
		t.Fatalf("on-disk payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(make([]byte, 13), raw[3:16]); diff != "" {
		t.Fatalf("on-disk padding mismatch (-want +got):\n%s", diff)
	}
}

func TestTwoWritesSamePage(t *testing.T) {
	m, _ := open(t, 16, 2)

	offA, _, _, err := m.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	offB, _, _, err := m.Write([]byte{4, 5})
	require.NoError(t, err)

	require.Equal(t, uint64(0), offA)
	require.Equal(t, uint64(3), offB)

	a, err := m.Read(offA, 3)
	require.NoError(t, err)
	if diff := cmp.Diff([]byte{1, 2, 3}, a); diff != "" {
		t.Fatalf("read mismatch (-want +got):\n%s", diff)
	}

	b, err := m.Read(offB, 2)
	require.NoError(t, err)
	if diff := cmp.Diff([]byte{4, 5}, b); diff != "" {
		t.Fatalf("read mismatch (-want +got):\n%s", diff)
	}
}

func TestOverflowToNewPage(t *testing.T) {
	m, _ := open(t, 16, 2)

	off1, _, _, err := m.Write(make([]byte, 10))
	require.NoError(t, err)
	require.Equal(t, uint64(0), off1)

	off2, _, _, err := m.Write(make([]byte, 10))
	require.NoError(t, err)
	require.Equal(t, uint64(16), off2)
}

func TestEvictionThenReload(t *testing.T) {
	m, _ := open(t, 16, 2)

	payload := []byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	off0, _, _, err := m.Write(payload)
	require.NoError(t, err)
	_, _, _, err = m.Write(make([]byte, 16)) // forces page 1
	require.NoError(t, err)
	_, _, _, err = m.Write(make([]byte, 16)) // forces page 2, evicts page 0
	require.NoError(t, err)

	require.LessOrEqual(t, len(m.resident), 2)

	got, err := m.Read(off0, len(payload))
	require.NoError(t, err)
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Fatalf("read mismatch after eviction (-want +got):\n%s", diff)
	}
}

func TestResidentNeverExceedsCapacity(t *testing.T) {
	m, _ := open(t, 16, 2)
	for i := 0; i < 10; i++ {
		_, _, _, err := m.Write(make([]byte, 16))
		require.NoError(t, err)
		require.LessOrEqual(t, len(m.resident), 2)
	}
}

func TestWriteLargerThanPageSizeFails(t *testing.T) {
	m, _ := open(t, 16, 2)
	_, _, _, err := m.Write(make([]byte, 17))
	require.Error(t, err)
}

func TestResumeAfterRestartContinuesPastTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.seg")

	m1, err := Open(path, 16, 2, Extent{}, nil)
	require.NoError(t, err)
	_, tail, _, err := m1.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, m1.Close())

	m2, err := Open(path, 16, 2, Extent{Offset: 0, Size: 3}, nil)
	require.NoError(t, err)
	defer m2.Close()

	off, _, _, err := m2.Write([]byte{4, 5})
	require.NoError(t, err)
	require.Equal(t, uint64(16), off, "resumed manager must append past the recovered tail page")
	require.Equal(t, tail, uint64(3))
}
