// Package pagedoc provides the in-memory handle for a fetched filing:
// per-page text plus page-range materialization into the per-document
// workspace.
package pagedoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one fetched filing, split into pages. Page numbers are
// 1-indexed. A Document is owned by a single pipeline run and must not be
// shared across documents.
type Document struct {
	path  string
	pages []string
}

// New wraps already-extracted page texts. path is the source file inside
// the workspace ("" when the document was never written to disk).
func New(path string, pages []string) *Document {
	return &Document{path: path, pages: pages}
}

// Path returns the source file location, if any.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// PageText returns the text of page n (1-indexed).
func (d *Document) PageText(n int) (string, error) {
	if n < 1 || n > len(d.pages) {
		return "", fmt.Errorf("page %d out of range (1-%d)", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// RangeText joins the text of pages start..end with form feeds. Pages
// outside the document are skipped, matching how an extraction call sees
// only what exists.
func (d *Document) RangeText(start, end int) string {
	var sb strings.Builder
	for p := start; p <= end; p++ {
		if p < 1 || p > len(d.pages) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\f")
		}
		sb.WriteString(d.pages[p-1])
	}
	return sb.String()
}

// MaterializeRange writes pages start..end to a chunk file inside dir and
// returns its path. The caller owns the file and must remove it.
func (d *Document) MaterializeRange(dir string, index, start, end int) (string, error) {
	name := fmt.Sprintf("chunk_%03d_pages_%d-%d.txt", index, start, end)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(d.RangeText(start, end)), 0o644); err != nil {
		return "", fmt.Errorf("write chunk file: %w", err)
	}
	return path, nil
}

// Remove deletes the source file, if one exists.
func (d *Document) Remove() error {
	if d.path == "" {
		return nil
	}
	err := os.Remove(d.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
