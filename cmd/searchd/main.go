// Command searchd runs the page-level document search service: it loads or
// builds the index snapshot, consumes document-pages events from Kafka, and
// serves ranked search queries over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/docsift/docsift/internal/cache"
	"github.com/docsift/docsift/internal/engine"
	"github.com/docsift/docsift/internal/engine/snapshot"
	"github.com/docsift/docsift/internal/ingest"
	"github.com/docsift/docsift/internal/server"
	"github.com/docsift/docsift/internal/store"
	"github.com/docsift/docsift/pkg/config"
	"github.com/docsift/docsift/pkg/health"
	"github.com/docsift/docsift/pkg/kafka"
	"github.com/docsift/docsift/pkg/logger"
	"github.com/docsift/docsift/pkg/metrics"
	pkgpostgres "github.com/docsift/docsift/pkg/postgres"
	pkgredis "github.com/docsift/docsift/pkg/redis"
	"github.com/docsift/docsift/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting searchd", "corpus_dir", cfg.Corpus.Dir, "snapshot", cfg.Snapshot.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	// Backing services are best-effort: the engine serves from memory, so
	// a missing cache or metadata store degrades the service instead of
	// stopping it.
	var meta *store.Metadata
	var pg *pkgpostgres.Client
	err = resilience.Retry(ctx, "postgres connect", resilience.RetryConfig{}, func() error {
		var connErr error
		pg, connErr = pkgpostgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Warn("postgres unavailable, document metadata disabled", "error", err)
	} else {
		defer pg.Close()
		meta = store.NewMetadata(pg)
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	err = resilience.Retry(ctx, "redis connect", resilience.RetryConfig{}, func() error {
		var connErr error
		redisClient, connErr = pkgredis.NewClient(cfg.Redis)
		return connErr
	})
	if err != nil {
		slog.Warn("redis unavailable, query cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexBuilt)
	defer producer.Close()

	eng := engine.New()
	snapshots := store.NewFileStore(cfg.Snapshot)
	staging := ingest.NewStaging()
	rebuilder := ingest.NewRebuilder(ingest.RebuilderConfig{
		Staging:      staging,
		Engine:       eng,
		Snapshots:    snapshots,
		Meta:         meta,
		Producer:     producer,
		Invalidator:  invalidator(queryCache),
		Metrics:      m,
		Interval:     cfg.Search.RebuildInterval,
		BuildTimeout: cfg.Search.BuildTimeout,
	})

	if err := bootstrapIndex(ctx, cfg, eng, snapshots, staging, rebuilder, m); err != nil {
		slog.Error("failed to bootstrap index", "error", err)
		os.Exit(1)
	}

	go rebuilder.Run(ctx)

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentPages,
		ingest.HandleDocumentEvent(staging, meta))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("ingest consumer stopped", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("engine", func(ctx context.Context) health.ComponentHealth {
		if !eng.Ready() {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no index built"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if meta != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := meta.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	handler := server.New(eng, queryCache, rebuilder, m, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler, checker, m, cfg.Server.RequestTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	slog.Info("searchd stopped")
}

// bootstrapIndex seeds the staging area from the corpus directory and
// installs an initial snapshot: the persisted one when it is present and
// fresh, otherwise a full rebuild. A missing, stale, or undecodable
// snapshot is recovered by rebuilding from source; decode failures are
// never fatal.
func bootstrapIndex(
	ctx context.Context,
	cfg *config.Config,
	eng *engine.Engine,
	snapshots *store.FileStore,
	staging *ingest.Staging,
	rebuilder *ingest.Rebuilder,
	m *metrics.Metrics,
) error {
	loader := ingest.NewLoader(cfg.Corpus.Dir)
	docs, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	staging.Seed(docs)

	snap, err := snapshots.Load()
	if err == nil {
		observeLoad(m, "success")
		eng.Restore(snap)
		return nil
	}
	var decodeErr *snapshot.DecodeError
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		observeLoad(m, "missing")
		slog.Info("no snapshot on disk, building from corpus")
	case errors.Is(err, store.ErrStaleSnapshot):
		observeLoad(m, "stale")
		slog.Info("snapshot is stale, rebuilding", "error", err)
	case errors.As(err, &decodeErr):
		observeLoad(m, "decode_error")
		slog.Warn("snapshot is unreadable, rebuilding from corpus", "error", err)
	default:
		return fmt.Errorf("loading snapshot: %w", err)
	}

	if len(docs) == 0 {
		slog.Warn("corpus directory is empty, waiting for documents",
			"dir", cfg.Corpus.Dir)
		return nil
	}
	staging.MarkDirty()
	if _, err := rebuilder.Rebuild(ctx); err != nil {
		return err
	}
	return nil
}

func observeLoad(m *metrics.Metrics, outcome string) {
	if m != nil {
		m.SnapshotLoads.WithLabelValues(outcome).Inc()
	}
}

// invalidator adapts the possibly-nil query cache to the rebuilder's
// Invalidator interface without handing it a typed nil.
func invalidator(c *cache.QueryCache) ingest.Invalidator {
	if c == nil {
		return nil
	}
	return c
}
