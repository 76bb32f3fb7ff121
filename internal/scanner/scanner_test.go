package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanYieldsOnlyTxtFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("ignored"), 0644))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.TXT"), []byte("nested"), 0644))

	docs, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byPath := map[string]string{}
	for _, d := range docs {
		byPath[d.Path] = d.Content
	}
	require.Equal(t, "hello world", byPath[filepath.Join(dir, "a.txt")])
	require.Equal(t, "nested", byPath[filepath.Join(sub, "c.TXT")])
}
