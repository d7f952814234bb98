package ingest

import (
	"testing"

	"github.com/docsift/docsift/internal/document"
)

func TestStagingSeedDoesNotDirty(t *testing.T) {
	s := NewStaging()
	s.Seed([]document.Document{{ID: "a"}, {ID: "b"}})
	if s.Dirty() {
		t.Error("Seed marked the corpus dirty")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestStagingPutMarksDirtyAndReplaces(t *testing.T) {
	s := NewStaging()
	s.Put(document.Document{ID: "a", Pages: []document.Page{{Number: 1, Text: "v1"}}})
	if !s.Dirty() {
		t.Fatal("Put did not mark dirty")
	}
	s.Put(document.Document{ID: "a", Pages: []document.Page{{Number: 1, Text: "v2"}}})
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after replacing same ID", s.Len())
	}
	docs := s.Docs()
	if docs[0].Pages[0].Text != "v2" {
		t.Errorf("staged text = %q, want latest version", docs[0].Pages[0].Text)
	}
}

func TestStagingDocsSortedAndClearsDirty(t *testing.T) {
	s := NewStaging()
	s.Put(document.Document{ID: "zebra"})
	s.Put(document.Document{ID: "apple"})
	s.Put(document.Document{ID: "mango"})

	docs := s.Docs()
	if docs[0].ID != "apple" || docs[1].ID != "mango" || docs[2].ID != "zebra" {
		t.Errorf("docs not sorted by ID: %v", docs)
	}
	if s.Dirty() {
		t.Error("Docs did not clear the dirty flag")
	}
}

func TestStagingMarkDirty(t *testing.T) {
	s := NewStaging()
	s.Seed([]document.Document{{ID: "a"}})
	s.MarkDirty()
	if !s.Dirty() {
		t.Error("MarkDirty had no effect")
	}
}
