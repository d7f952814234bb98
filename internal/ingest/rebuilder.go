package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/engine"
	"github.com/docsift/docsift/internal/engine/snapshot"
	"github.com/docsift/docsift/internal/engine/tfidf"
	"github.com/docsift/docsift/internal/store"
	"github.com/docsift/docsift/pkg/kafka"
	"github.com/docsift/docsift/pkg/metrics"
	"github.com/docsift/docsift/pkg/resilience"
)

// Invalidator clears derived state (the query cache) after a snapshot swap.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Rebuilder watches the staging area and recomputes the full index whenever
// the staged corpus changed. Every rebuild produces a brand-new snapshot;
// the previous one stays active until the swap.
type Rebuilder struct {
	staging      *Staging
	engine       *engine.Engine
	snapshots    *store.FileStore
	meta         *store.Metadata
	producer     *kafka.Producer
	invalidator  Invalidator
	metrics      *metrics.Metrics
	interval     time.Duration
	buildTimeout time.Duration
	mu           sync.Mutex
	logger       *slog.Logger
}

// RebuilderConfig wires the Rebuilder's collaborators. Meta, Producer,
// Invalidator, and Metrics are optional; the snapshot store is not.
type RebuilderConfig struct {
	Staging      *Staging
	Engine       *engine.Engine
	Snapshots    *store.FileStore
	Meta         *store.Metadata
	Producer     *kafka.Producer
	Invalidator  Invalidator
	Metrics      *metrics.Metrics
	Interval     time.Duration
	BuildTimeout time.Duration
}

// NewRebuilder creates a Rebuilder.
func NewRebuilder(cfg RebuilderConfig) *Rebuilder {
	return &Rebuilder{
		staging:      cfg.Staging,
		engine:       cfg.Engine,
		snapshots:    cfg.Snapshots,
		meta:         cfg.Meta,
		producer:     cfg.Producer,
		invalidator:  cfg.Invalidator,
		metrics:      cfg.Metrics,
		interval:     cfg.Interval,
		buildTimeout: cfg.BuildTimeout,
		logger:       slog.Default().With("component", "rebuilder"),
	}
}

// Run checks the staging area on every tick and rebuilds when it is dirty.
// It blocks until ctx is cancelled.
func (r *Rebuilder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("rebuild loop stopping")
			return
		case <-ticker.C:
			if !r.staging.Dirty() {
				continue
			}
			if _, err := r.Rebuild(ctx); err != nil {
				r.logger.Error("periodic rebuild failed", "error", err)
			}
		}
	}
}

// Rebuild recomputes the index from the full staged corpus, persists the
// new snapshot, records metadata, publishes an IndexBuiltEvent, and
// invalidates the query cache. Rebuilds are serialised; a concurrent call
// waits its turn and then rebuilds again, which is harmless.
func (r *Rebuilder) Rebuild(ctx context.Context) (*snapshot.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs := r.staging.Docs()
	start := time.Now()
	var snap *snapshot.Snapshot
	err := resilience.WithTimeout(ctx, r.buildTimeout, "index rebuild", func(ctx context.Context) error {
		var buildErr error
		snap, buildErr = r.engine.Build(ctx, docs)
		return buildErr
	})
	if err != nil {
		// Leave the corpus marked dirty so the next tick retries. An
		// empty corpus is the exception: retrying cannot help until a
		// document arrives, and Put sets the flag then.
		if !errors.Is(err, tfidf.ErrEmptyCorpus) {
			r.staging.MarkDirty()
		}
		r.observeBuild("error", 0, time.Since(start))
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}
	r.observeBuild("success", len(docs), time.Since(start))

	if err := r.snapshots.Save(snap); err != nil {
		// The in-memory swap already happened; queries keep working.
		// Persisting again next rebuild is the recovery path.
		r.logger.Error("failed to persist snapshot", "error", err)
		if r.metrics != nil {
			r.metrics.SnapshotSaves.WithLabelValues("error").Inc()
		}
	} else if r.metrics != nil {
		r.metrics.SnapshotSaves.WithLabelValues("success").Inc()
	}

	r.afterBuild(ctx, docs, snap, time.Since(start))
	return snap, nil
}

// afterBuild performs the non-fatal post-build bookkeeping: metadata,
// event publication, cache invalidation.
func (r *Rebuilder) afterBuild(ctx context.Context, docs []document.Document, snap *snapshot.Snapshot, took time.Duration) {
	if r.meta != nil {
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		if err := r.meta.MarkIndexed(ctx, ids); err != nil {
			r.logger.Error("failed to mark documents indexed", "error", err)
		}
		if err := r.meta.RecordBuild(ctx, snap.DocCount(), snap.TermCount(), took, snap.BuiltAt); err != nil {
			r.logger.Error("failed to record build", "error", err)
		}
	}
	if r.producer != nil {
		event := IndexBuiltEvent{
			Documents: snap.DocCount(),
			Terms:     snap.TermCount(),
			BuiltAt:   snap.BuiltAt,
		}
		if err := r.producer.Publish(ctx, kafka.Event{Key: "index-built", Value: event}); err != nil {
			r.logger.Error("failed to publish index-built event", "error", err)
		}
	}
	if r.invalidator != nil {
		if err := r.invalidator.Invalidate(ctx); err != nil {
			r.logger.Error("failed to invalidate query cache", "error", err)
		}
	}
	r.logger.Info("index rebuilt",
		"docs", snap.DocCount(),
		"terms", snap.TermCount(),
		"duration", took.Round(time.Millisecond),
	)
}

func (r *Rebuilder) observeBuild(outcome string, docs int, took time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.IndexBuildsTotal.WithLabelValues(outcome).Inc()
	if outcome != "success" {
		return
	}
	r.metrics.IndexBuildDuration.Observe(took.Seconds())
	r.metrics.DocsIndexedTotal.Add(float64(docs))
	if snap := r.engine.Snapshot(); snap != nil {
		r.metrics.IndexedDocuments.Set(float64(snap.DocCount()))
		r.metrics.IndexedTerms.Set(float64(snap.TermCount()))
	}
}
