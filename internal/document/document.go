// Package document defines the corpus input types consumed by the indexing
// engine: a document identifier plus an ordered sequence of extracted pages.
// Text extraction itself (PDF parsing etc.) happens upstream; by the time a
// Document reaches this package it is plain text only.
package document

import "strings"

// Page is one extracted page of a document. Number is 1-based and unique
// within the document. Text may be empty for pages the extractor could not
// read.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Document is a single corpus entry: an opaque stable identifier (typically
// the source file name) and its pages in ascending page order.
type Document struct {
	ID    string `json:"id"`
	Pages []Page `json:"pages"`
}

// Text returns the text of all pages joined with newlines, in page order.
// Term frequencies are computed over this whole-document text. The separator
// keeps a token ending one page from fusing with the token starting the
// next, which would make it invisible to both TF and the index.
func (d Document) Text() string {
	var b strings.Builder
	for i, p := range d.Pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
