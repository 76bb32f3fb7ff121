// Package scanner walks a directory and yields the content and path
// of every .txt file under it — the directory scanner spec.md §1
// specifies only by contract, external to the core.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one (content, path) pair yielded by a scan.
type Document struct {
	Path    string
	Content string
}

// Scan walks root and returns every .txt file found, in the order
// filepath.WalkDir visits them (lexical per directory).
func Scan(root string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanner: walk %q: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("scanner: read %q: %w", path, err)
		}

		docs = append(docs, Document{Path: path, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}
