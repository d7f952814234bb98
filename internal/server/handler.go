// Package server exposes the search engine over HTTP: query answering,
// operator-triggered rebuilds, and health probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/docsift/docsift/internal/cache"
	"github.com/docsift/docsift/internal/engine"
	"github.com/docsift/docsift/internal/engine/query"
	"github.com/docsift/docsift/internal/engine/tfidf"
	"github.com/docsift/docsift/internal/ingest"
	apperrors "github.com/docsift/docsift/pkg/errors"
	"github.com/docsift/docsift/pkg/logger"
	"github.com/docsift/docsift/pkg/metrics"
)

// SearchResponse is the JSON body returned by GET /search.
type SearchResponse struct {
	Query    string         `json:"query"`
	Total    int            `json:"total"`
	Results  []query.Result `json:"results"`
	TookMs   int64          `json:"took_ms"`
	CacheHit bool           `json:"cache_hit"`
}

// RebuildResponse is the JSON body returned by POST /rebuild.
type RebuildResponse struct {
	Documents int       `json:"documents"`
	Terms     int       `json:"terms"`
	BuiltAt   time.Time `json:"built_at"`
}

// Handler serves search traffic against the engine, with an optional query
// cache in front.
type Handler struct {
	engine       *engine.Engine
	cache        *cache.QueryCache
	rebuilder    *ingest.Rebuilder
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler. cache and metrics may be nil.
func New(eng *engine.Engine, queryCache *cache.QueryCache, rebuilder *ingest.Rebuilder, m *metrics.Metrics, defaultLimit, maxResults int) *Handler {
	return &Handler{
		engine:       eng,
		cache:        queryCache,
		rebuilder:    rebuilder,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /search?q=...&limit=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput,
			http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput,
				http.StatusBadRequest, "limit must be a positive integer"))
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	var results []query.Result
	var err error
	cacheHit := false
	if h.cache != nil {
		results, cacheHit, err = h.cache.GetOrCompute(ctx, q, limit, func() ([]query.Result, error) {
			return h.engine.Search(q, limit)
		})
	} else {
		results, err = h.engine.Search(q, limit)
	}
	if err != nil {
		h.observeQuery("error", cacheHit, start, 0)
		if errors.Is(err, engine.ErrNoIndex) {
			h.writeError(w, apperrors.New(apperrors.ErrIndexNotReady,
				http.StatusServiceUnavailable, "index not built yet"))
			return
		}
		log.Error("search failed", "query", q, "error", err)
		h.writeError(w, apperrors.New(apperrors.ErrInternal,
			http.StatusInternalServerError, "search failed"))
		return
	}

	outcome := "hit"
	if len(results) == 0 {
		outcome = "zero_result"
		results = []query.Result{}
	}
	h.observeQuery(outcome, cacheHit, start, len(results))
	log.Info("search completed",
		"query", q,
		"results", len(results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:    q,
		Total:    len(results),
		Results:  results,
		TookMs:   time.Since(start).Milliseconds(),
		CacheHit: cacheHit,
	})
}

// Rebuild handles POST /rebuild: recompute the index from the currently
// staged corpus, synchronously.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput,
			http.StatusMethodNotAllowed, "use POST"))
		return
	}
	ctx := r.Context()
	log := logger.FromContext(ctx)

	snap, err := h.rebuilder.Rebuild(ctx)
	if err != nil {
		switch {
		case errors.Is(err, tfidf.ErrEmptyCorpus):
			h.writeError(w, apperrors.New(apperrors.ErrInvalidInput,
				http.StatusBadRequest, "corpus is empty; nothing to index"))
		case errors.Is(err, context.DeadlineExceeded):
			h.writeError(w, apperrors.New(apperrors.ErrTimeout,
				http.StatusServiceUnavailable, "rebuild timed out"))
		default:
			log.Error("rebuild failed", "error", err)
			h.writeError(w, apperrors.New(apperrors.ErrInternal,
				http.StatusInternalServerError, "rebuild failed"))
		}
		return
	}
	h.writeJSON(w, http.StatusOK, RebuildResponse{
		Documents: snap.DocCount(),
		Terms:     snap.TermCount(),
		BuiltAt:   snap.BuiltAt,
	})
}

func (h *Handler) observeQuery(outcome string, cacheHit bool, start time.Time, resultCount int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if outcome != "error" {
		h.metrics.SearchResultsCount.Observe(float64(resultCount))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	h.writeJSON(w, apperrors.HTTPStatusCode(err), map[string]string{"error": message})
}
