// Package ingest feeds the engine with corpus documents. Two paths exist: a
// filesystem loader for pre-extracted page-text files, and a Kafka consumer
// for page-extract events pushed by an upstream extractor. Both stage
// documents in memory; the rebuilder periodically recomputes the full index
// from the staged corpus.
package ingest

import (
	"time"

	"github.com/docsift/docsift/internal/document"
)

// DocumentEvent is the Kafka payload on the document-pages topic: one
// document's identifier and its full ordered page-text sequence, as produced
// by the upstream extractor.
type DocumentEvent struct {
	DocumentID  string          `json:"document_id"`
	Pages       []document.Page `json:"pages"`
	ExtractedAt time.Time       `json:"extracted_at"`
}

// IndexBuiltEvent is published on the index-built topic after a successful
// rebuild, so cache layers and replicas know the active snapshot changed.
type IndexBuiltEvent struct {
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	BuiltAt   time.Time `json:"built_at"`
}
