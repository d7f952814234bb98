package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docsift/docsift/internal/document"
)

// pagesSuffix is the file naming convention for extracted page text: one
// JSON file per source document, holding its ordered page array.
const pagesSuffix = ".pages.json"

// Loader reads a corpus of pre-extracted page-text files from a directory.
// The document ID is the file name without the .pages.json suffix, which
// upstream extractors set to the source file name (e.g. "report.pdf").
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a Loader for the given corpus directory.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:    dir,
		logger: slog.Default().With("component", "corpus-loader"),
	}
}

// Load reads every page-text file in the corpus directory. Files that fail
// to parse abort the load; a missing directory is an error too, since an
// operator pointing the service at the wrong path should hear about it.
func (l *Loader) Load(ctx context.Context) ([]document.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", l.dir, err)
	}
	docs := make([]document.Document, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), pagesSuffix) {
			continue
		}
		doc, err := l.loadFile(filepath.Join(l.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	l.logger.Info("corpus loaded", "dir", l.dir, "documents", len(docs))
	return docs, nil
}

// loadFile parses one page-text file and validates its page numbering.
func (l *Loader) loadFile(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var pages []document.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return document.Document{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	docID := strings.TrimSuffix(filepath.Base(path), pagesSuffix)
	if err := validatePages(pages); err != nil {
		return document.Document{}, fmt.Errorf("document %s: %w", docID, err)
	}
	return document.Document{ID: docID, Pages: pages}, nil
}

// validatePages checks that page numbers are positive and strictly
// ascending. Empty page text is fine; the extractor emits it for pages it
// could not read.
func validatePages(pages []document.Page) error {
	prev := 0
	for _, p := range pages {
		if p.Number < 1 {
			return fmt.Errorf("invalid page number %d", p.Number)
		}
		if p.Number <= prev {
			return fmt.Errorf("page numbers out of order: %d after %d", p.Number, prev)
		}
		prev = p.Number
	}
	return nil
}
