package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/engine"
	"github.com/docsift/docsift/internal/engine/tfidf"
	"github.com/docsift/docsift/internal/store"
	"github.com/docsift/docsift/pkg/config"
)

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(ctx context.Context) error {
	f.calls++
	return nil
}

func newTestRebuilder(t *testing.T, staging *Staging) (*Rebuilder, *engine.Engine, *fakeInvalidator) {
	t.Helper()
	eng := engine.New()
	inv := &fakeInvalidator{}
	r := NewRebuilder(RebuilderConfig{
		Staging: staging,
		Engine:  eng,
		Snapshots: store.NewFileStore(config.SnapshotConfig{
			Path: filepath.Join(t.TempDir(), "index.snap"),
		}),
		Invalidator:  inv,
		Interval:     time.Second,
		BuildTimeout: time.Minute,
	})
	return r, eng, inv
}

func TestRebuildBuildsAndPersists(t *testing.T) {
	staging := NewStaging()
	staging.Put(document.Document{ID: "a", Pages: []document.Page{
		{Number: 1, Text: "cat dog"},
	}})
	r, eng, inv := newTestRebuilder(t, staging)

	snap, err := r.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if snap.DocCount() != 1 {
		t.Errorf("DocCount = %d, want 1", snap.DocCount())
	}
	if !eng.Ready() {
		t.Error("engine has no active snapshot after rebuild")
	}
	if staging.Dirty() {
		t.Error("corpus still dirty after successful rebuild")
	}
	if inv.calls != 1 {
		t.Errorf("cache invalidated %d times, want 1", inv.calls)
	}

	loaded, err := r.snapshots.Load()
	if err != nil {
		t.Fatalf("loading persisted snapshot: %v", err)
	}
	if loaded.DocCount() != 1 {
		t.Errorf("persisted DocCount = %d, want 1", loaded.DocCount())
	}
}

func TestRebuildEmptyCorpusDoesNotRetry(t *testing.T) {
	staging := NewStaging()
	staging.MarkDirty()
	r, eng, inv := newTestRebuilder(t, staging)

	_, err := r.Rebuild(context.Background())
	if !errors.Is(err, tfidf.ErrEmptyCorpus) {
		t.Fatalf("Rebuild error = %v, want ErrEmptyCorpus", err)
	}
	// Retrying an empty corpus every tick is pointless noise; the next
	// Put marks the corpus dirty again.
	if staging.Dirty() {
		t.Error("empty-corpus failure left the dirty flag set")
	}
	if eng.Ready() {
		t.Error("failed rebuild installed a snapshot")
	}
	if inv.calls != 0 {
		t.Error("cache invalidated after a failed rebuild")
	}
}

func TestRebuildFailureStaysDirty(t *testing.T) {
	staging := NewStaging()
	staging.Put(document.Document{ID: "a", Pages: []document.Page{
		{Number: 1, Text: "cat"},
	}})
	r, eng, _ := newTestRebuilder(t, staging)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Rebuild(ctx); err == nil {
		t.Fatal("expected rebuild with cancelled context to fail")
	}
	if !staging.Dirty() {
		t.Error("failed rebuild cleared the dirty flag; the retry trigger is lost")
	}
	if eng.Ready() {
		t.Error("failed rebuild installed a snapshot")
	}
}

func TestRunRebuildsWhenDirty(t *testing.T) {
	staging := NewStaging()
	r, eng, _ := newTestRebuilder(t, staging)
	r.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	staging.Put(document.Document{ID: "a", Pages: []document.Page{
		{Number: 1, Text: "hello"},
	}})
	deadline := time.After(2 * time.Second)
	for !eng.Ready() {
		select {
		case <-deadline:
			t.Fatal("rebuild loop never picked up the dirty corpus")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
