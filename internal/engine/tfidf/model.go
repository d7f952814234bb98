// Package tfidf computes the relevance model over a fixed corpus: per-
// document term frequencies, corpus-wide inverse document frequencies, and
// their product, the TF-IDF weight of each term in each document.
package tfidf

import (
	"errors"
	"math"

	"github.com/docsift/docsift/internal/engine/tokenizer"
)

// ErrEmptyCorpus is returned when a model build is attempted over zero
// documents. IDF is undefined for an empty corpus, so the build is rejected
// outright rather than producing a degenerate model.
var ErrEmptyCorpus = errors.New("tfidf: empty corpus")

// Model holds the computed TF-IDF state for one corpus snapshot. All maps
// are keyed by document ID and/or term; a (doc, term) weight entry exists
// only when the term actually occurs in that document, so absent lookups
// default to zero.
type Model struct {
	// TF maps document ID -> term -> occurrences/total for that document.
	TF map[string]map[string]float64
	// IDF maps term -> ln(N/(df+1)) + 1 for every term seen in the corpus.
	IDF map[string]float64
	// Weights maps document ID -> term -> TF×IDF.
	Weights map[string]map[string]float64
}

// ComputeTF returns the occurrence-normalised term frequencies of one
// document text. A document with zero tokens yields an empty map; the
// division is never evaluated for an empty token sequence.
func ComputeTF(text string) map[string]float64 {
	terms := tokenizer.Tokenize(text)
	tf := make(map[string]float64, len(terms))
	if len(terms) == 0 {
		return tf
	}
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	total := float64(len(terms))
	for term, count := range counts {
		tf[term] = float64(count) / total
	}
	return tf
}

// Build assembles the corpus model from per-document term frequencies, as
// produced by ComputeTF. It returns ErrEmptyCorpus when tf contains no
// documents.
func Build(tf map[string]map[string]float64) (*Model, error) {
	if len(tf) == 0 {
		return nil, ErrEmptyCorpus
	}
	df := make(map[string]int)
	for _, docTF := range tf {
		for term := range docTF {
			df[term]++
		}
	}
	n := float64(len(tf))
	idf := make(map[string]float64, len(df))
	for term, freq := range df {
		idf[term] = math.Log(n/float64(freq+1)) + 1
	}
	weights := make(map[string]map[string]float64, len(tf))
	for docID, docTF := range tf {
		docWeights := make(map[string]float64, len(docTF))
		for term, freq := range docTF {
			docWeights[term] = freq * idf[term]
		}
		weights[docID] = docWeights
	}
	return &Model{TF: tf, IDF: idf, Weights: weights}, nil
}
