package ingest

import (
	"sort"
	"sync"

	"github.com/docsift/docsift/internal/document"
)

// Staging holds the current full corpus view between rebuilds. New or
// re-extracted documents replace their previous version wholesale; the
// engine never updates incrementally, it recomputes from this full view.
type Staging struct {
	mu    sync.Mutex
	docs  map[string]document.Document
	dirty bool
}

// NewStaging creates an empty staging area.
func NewStaging() *Staging {
	return &Staging{docs: make(map[string]document.Document)}
}

// Seed replaces the staged corpus with the given documents without marking
// it dirty, for use at startup when the corresponding snapshot was already
// loaded.
func (s *Staging) Seed(docs []document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]document.Document, len(docs))
	for _, doc := range docs {
		s.docs[doc.ID] = doc
	}
}

// Put stages one document and marks the corpus dirty.
func (s *Staging) Put(doc document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	s.dirty = true
}

// MarkDirty forces the next rebuild tick to run even if no document
// changed, for operator-triggered rebuilds.
func (s *Staging) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Docs returns the staged corpus in stable (ascending document ID) order
// and clears the dirty flag.
func (s *Staging) Docs() []document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]document.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	s.dirty = false
	return docs
}

// Dirty reports whether the staged corpus changed since the last Docs call.
func (s *Staging) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Len returns the number of staged documents.
func (s *Staging) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}
