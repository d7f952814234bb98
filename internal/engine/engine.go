// Package engine owns the in-memory search state. A Build pass tokenizes
// the corpus, constructs the inverted index and TF-IDF model off to the
// side, and atomically swaps the finished snapshot in, so concurrent
// searches always observe one fully consistent snapshot and never a
// half-built one.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/engine/index"
	"github.com/docsift/docsift/internal/engine/query"
	"github.com/docsift/docsift/internal/engine/snapshot"
	"github.com/docsift/docsift/internal/engine/tfidf"
)

// ErrNoIndex is returned by Search before any snapshot has been built or
// restored.
var ErrNoIndex = errors.New("engine: no index built")

// Engine holds exactly one active snapshot at a time. Builds are serialised;
// searches run lock-free against the active snapshot pointer.
type Engine struct {
	snap    atomic.Pointer[snapshot.Snapshot]
	buildMu sync.Mutex
	workers int
	logger  *slog.Logger
}

// New creates an Engine with no active snapshot. Document fan-out during
// builds is bounded by GOMAXPROCS.
func New() *Engine {
	return &Engine{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default().With("component", "engine"),
	}
}

// docResult is the per-document output of the parallel build pass: the
// document's partial inverted index, its concatenated text, and its term
// frequencies. Each document's result is written to its own slice slot, so
// the pass needs no shared mutable state.
type docResult struct {
	partial index.Partial
	text    string
	tf      map[string]float64
}

// Build computes a complete new snapshot from the given corpus and installs
// it as the active one. It fails with tfidf.ErrEmptyCorpus on an empty
// corpus and leaves the previous snapshot untouched on any failure.
func (e *Engine) Build(ctx context.Context, docs []document.Document) (*snapshot.Snapshot, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("building snapshot: %w", tfidf.ErrEmptyCorpus)
	}
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	start := time.Now()
	results := make([]docResult, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text := doc.Text()
			results[i] = docResult{
				partial: index.BuildDocument(doc),
				text:    text,
				tf:      tfidf.ComputeTF(text),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}

	partials := make([]index.Partial, len(results))
	texts := make(map[string]string, len(results))
	tf := make(map[string]map[string]float64, len(results))
	for i, r := range results {
		partials[i] = r.partial
		texts[r.partial.DocID] = r.text
		tf[r.partial.DocID] = r.tf
	}
	model, err := tfidf.Build(tf)
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}
	snap := &snapshot.Snapshot{
		Texts:    texts,
		Inverted: index.Merge(partials),
		TF:       model.TF,
		IDF:      model.IDF,
		Weights:  model.Weights,
		BuiltAt:  time.Now().UTC(),
	}
	e.snap.Store(snap)
	e.logger.Info("snapshot built",
		"docs", snap.DocCount(),
		"terms", snap.TermCount(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return snap, nil
}

// Restore installs a previously serialised snapshot as the active one,
// replacing whatever was active before.
func (e *Engine) Restore(snap *snapshot.Snapshot) {
	e.snap.Store(snap)
	e.logger.Info("snapshot restored",
		"docs", snap.DocCount(),
		"terms", snap.TermCount(),
		"built_at", snap.BuiltAt,
	)
}

// Snapshot returns the active snapshot, or nil if none has been built.
func (e *Engine) Snapshot() *snapshot.Snapshot {
	return e.snap.Load()
}

// Ready reports whether an active snapshot is installed.
func (e *Engine) Ready() bool {
	return e.snap.Load() != nil
}

// Search runs the query against the active snapshot. limit <= 0 returns all
// matches. It fails with ErrNoIndex when no snapshot is active; empty or
// unknown-term queries return empty results, not errors.
func (e *Engine) Search(q string, limit int) ([]query.Result, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, ErrNoIndex
	}
	return query.Search(snap, q, limit), nil
}
