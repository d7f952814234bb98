package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/docsift/docsift/pkg/postgres"
)

// Document status values tracked in the metadata store.
const (
	StatusPending = "PENDING"
	StatusIndexed = "INDEXED"
	StatusFailed  = "FAILED"
)

// Metadata records per-document bookkeeping and index-build audit rows in
// PostgreSQL. Expected schema:
//
//	CREATE TABLE documents (
//	    doc_id     TEXT PRIMARY KEY,
//	    page_count INT NOT NULL,
//	    status     TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE index_builds (
//	    id         BIGSERIAL PRIMARY KEY,
//	    doc_count  INT NOT NULL,
//	    term_count INT NOT NULL,
//	    duration_ms BIGINT NOT NULL,
//	    built_at   TIMESTAMPTZ NOT NULL
//	);
type Metadata struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewMetadata creates a Metadata store over an open PostgreSQL client.
func NewMetadata(db *postgres.Client) *Metadata {
	return &Metadata{
		db:     db,
		logger: slog.Default().With("component", "metadata-store"),
	}
}

// UpsertDocument registers a document (or a fresh version of it) as pending
// indexing.
func (m *Metadata) UpsertDocument(ctx context.Context, docID string, pageCount int) error {
	_, err := m.db.DB.ExecContext(ctx, `
		INSERT INTO documents (doc_id, page_count, status, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (doc_id) DO UPDATE
		SET page_count = EXCLUDED.page_count,
		    status     = EXCLUDED.status,
		    updated_at = now()`,
		docID, pageCount, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", docID, err)
	}
	return nil
}

// SetStatus updates a single document's status.
func (m *Metadata) SetStatus(ctx context.Context, docID string, status string) error {
	_, err := m.db.DB.ExecContext(ctx, `
		UPDATE documents SET status = $2, updated_at = now() WHERE doc_id = $1`,
		docID, status,
	)
	if err != nil {
		return fmt.Errorf("updating status of %s: %w", docID, err)
	}
	return nil
}

// MarkIndexed flips the given documents to INDEXED after a successful build.
func (m *Metadata) MarkIndexed(ctx context.Context, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}
	_, err := m.db.DB.ExecContext(ctx, `
		UPDATE documents SET status = $2, updated_at = now()
		WHERE doc_id = ANY($1)`,
		pq.Array(docIDs), StatusIndexed,
	)
	if err != nil {
		return fmt.Errorf("marking %d documents indexed: %w", len(docIDs), err)
	}
	return nil
}

// RecordBuild appends an audit row for a completed index build.
func (m *Metadata) RecordBuild(ctx context.Context, docCount, termCount int, duration time.Duration, builtAt time.Time) error {
	_, err := m.db.DB.ExecContext(ctx, `
		INSERT INTO index_builds (doc_count, term_count, duration_ms, built_at)
		VALUES ($1, $2, $3, $4)`,
		docCount, termCount, duration.Milliseconds(), builtAt,
	)
	if err != nil {
		return fmt.Errorf("recording index build: %w", err)
	}
	return nil
}

// Ping verifies database connectivity, for health checks.
func (m *Metadata) Ping(ctx context.Context) error {
	return m.db.DB.PingContext(ctx)
}
