// Package query answers free-text searches against an immutable corpus
// snapshot. Searching is read-only and safe for concurrent callers.
package query

import (
	"sort"

	"github.com/docsift/docsift/internal/engine/snapshot"
	"github.com/docsift/docsift/internal/engine/tokenizer"
)

// Result is one ranked document: its total TF-IDF score over the query terms
// and the ascending, duplicate-free page numbers on which any query term
// occurs.
type Result struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
	Pages      []int   `json:"pages"`
}

// Search tokenizes the query, accumulates per-document TF-IDF weight for
// every query token occurrence, unions matched page numbers, and returns
// results sorted by descending score. Ties break on ascending document ID.
// Repeated query terms are intentionally not deduplicated: each occurrence
// adds the term's weight again, so repetition amplifies a term's influence.
//
// A query with no tokens, or whose terms are all absent from the index,
// yields an empty result set, never an error. limit > 0 caps the number of
// results; limit <= 0 returns all matches.
func Search(snap *snapshot.Snapshot, query string, limit int) []Result {
	terms := tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}
	scores := make(map[string]float64)
	pages := make(map[string]map[int]struct{})
	for _, term := range terms {
		postings, ok := snap.Inverted[term]
		if !ok {
			continue
		}
		for docID, docPages := range postings {
			scores[docID] += snap.Weights[docID][term]
			set, ok := pages[docID]
			if !ok {
				set = make(map[int]struct{}, len(docPages))
				pages[docID] = set
			}
			for _, p := range docPages {
				set[p] = struct{}{}
			}
		}
	}
	results := make([]Result, 0, len(scores))
	for docID, score := range scores {
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			DocumentID: docID,
			Score:      score,
			Pages:      sortedPages(pages[docID]),
		})
	}
	if limit > 0 && len(results) > limit {
		return topK(results, limit)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	return results
}

func sortedPages(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
