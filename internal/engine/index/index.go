// Package index builds the page-level inverted index: for every term, which
// documents contain it and on which pages. The index tracks presence only;
// all weighting lives in the tfidf package.
package index

import (
	"sort"

	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/engine/tokenizer"
)

// Postings maps a document ID to the ascending, duplicate-free list of page
// numbers on which a term occurs.
type Postings map[string][]int

// Inverted maps every term seen in the corpus to its postings. A term is
// present iff it occurs on at least one page of at least one document;
// entries are never created empty.
type Inverted map[string]Postings

// Partial is the contribution of a single document to the inverted index.
// Partials are immutable once built and carry no shared state, so documents
// can be processed in parallel and merged in any order.
type Partial struct {
	DocID string
	Terms map[string][]int
}

// BuildDocument tokenizes each page of a document and records, per distinct
// term, the pages it occurs on. Duplicate occurrences of a term within one
// page collapse to a single page registration. Page lists come out ascending
// and duplicate-free as long as pages arrive in ascending order, which the
// ingestion layer guarantees; out-of-order input is normalised at the end.
func BuildDocument(doc document.Document) Partial {
	terms := make(map[string][]int)
	for _, page := range doc.Pages {
		seen := make(map[string]struct{})
		for _, term := range tokenizer.Tokenize(page.Text) {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			pages := terms[term]
			if n := len(pages); n > 0 && pages[n-1] == page.Number {
				continue
			}
			terms[term] = append(pages, page.Number)
		}
	}
	for term, pages := range terms {
		terms[term] = normalizePages(pages)
	}
	return Partial{DocID: doc.ID, Terms: terms}
}

// Merge folds per-document partials into one Inverted index. The merge is
// commutative: each (term, doc) pair is written by exactly one partial, so
// the result is identical regardless of input order.
func Merge(partials []Partial) Inverted {
	inv := make(Inverted)
	for _, p := range partials {
		for term, pages := range p.Terms {
			postings, ok := inv[term]
			if !ok {
				postings = make(Postings)
				inv[term] = postings
			}
			postings[p.DocID] = pages
		}
	}
	return inv
}

// normalizePages sorts the page list and removes duplicates in place.
func normalizePages(pages []int) []int {
	if len(pages) <= 1 {
		return pages
	}
	sort.Ints(pages)
	out := pages[:1]
	for _, p := range pages[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
