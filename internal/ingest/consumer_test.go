package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/docsift/docsift/internal/document"
)

func encodeEvent(t *testing.T, event DocumentEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshalling event: %v", err)
	}
	return data
}

func TestHandleDocumentEventStages(t *testing.T) {
	staging := NewStaging()
	handler := HandleDocumentEvent(staging, nil)

	value := encodeEvent(t, DocumentEvent{
		DocumentID: "report.pdf",
		Pages: []document.Page{
			{Number: 2, Text: "second"},
			{Number: 1, Text: "first"},
		},
		ExtractedAt: time.Now().UTC(),
	})
	if err := handler(context.Background(), []byte("report.pdf"), value); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !staging.Dirty() {
		t.Fatal("event did not mark the corpus dirty")
	}
	docs := staging.Docs()
	if len(docs) != 1 || docs[0].ID != "report.pdf" {
		t.Fatalf("staged docs = %v", docs)
	}
	// Pages arrive unordered on the wire and must be sorted on intake.
	if docs[0].Pages[0].Number != 1 || docs[0].Pages[1].Number != 2 {
		t.Errorf("pages not sorted: %+v", docs[0].Pages)
	}
}

func TestHandleDocumentEventSkipsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
	}{
		{"invalid json", []byte("{broken")},
		{"missing document id", []byte(`{"pages":[{"page":1,"text":"x"}]}`)},
		{"zero page number", []byte(`{"document_id":"a","pages":[{"page":0,"text":"x"}]}`)},
		{"duplicate page number", []byte(`{"document_id":"a","pages":[{"page":1,"text":"x"},{"page":1,"text":"y"}]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staging := NewStaging()
			handler := HandleDocumentEvent(staging, nil)
			// Malformed events are dropped, never surfaced as consumer
			// errors, so the partition keeps moving.
			if err := handler(context.Background(), nil, tt.value); err != nil {
				t.Fatalf("handler returned error for malformed event: %v", err)
			}
			if staging.Dirty() || staging.Len() != 0 {
				t.Error("malformed event was staged")
			}
		})
	}
}

func TestNormalizeEventPages(t *testing.T) {
	got := normalizeEventPages([]document.Page{
		{Number: 3, Text: "c"},
		{Number: 1, Text: "a"},
		{Number: 2, Text: "b"},
	})
	if len(got) != 3 || got[0].Number != 1 || got[2].Number != 3 {
		t.Errorf("normalizeEventPages = %+v", got)
	}
	if normalizeEventPages([]document.Page{{Number: -1}}) != nil {
		t.Error("negative page number accepted")
	}
}
