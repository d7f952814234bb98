// Package snapshot defines the durable aggregate of one full indexing pass
// and its wire codec. A Snapshot is created once per corpus build, is
// immutable afterwards, and is replaced wholesale on re-indexing; there is
// no partial mutation.
package snapshot

import (
	"time"

	"github.com/docsift/docsift/internal/engine/index"
)

// Snapshot is the complete engine state for one corpus: document texts, the
// page-level inverted index, and the TF-IDF model. All maps share the same
// document ID and term keys; a (doc, term) entry that does not exist is a
// zero weight, never a stored zero.
type Snapshot struct {
	// Texts maps document ID -> full concatenated document text.
	Texts map[string]string `json:"texts"`
	// Inverted maps term -> document ID -> ascending page numbers.
	Inverted index.Inverted `json:"inverted"`
	// TF maps document ID -> term -> occurrence-normalised frequency.
	TF map[string]map[string]float64 `json:"tf"`
	// IDF maps term -> corpus-wide inverse document frequency.
	IDF map[string]float64 `json:"idf"`
	// Weights maps document ID -> term -> TF×IDF.
	Weights map[string]map[string]float64 `json:"weights"`
	// BuiltAt records when the indexing pass completed.
	BuiltAt time.Time `json:"built_at"`
}

// DocCount returns the number of documents in the snapshot.
func (s *Snapshot) DocCount() int {
	return len(s.Texts)
}

// TermCount returns the number of distinct terms in the inverted index.
func (s *Snapshot) TermCount() int {
	return len(s.Inverted)
}
