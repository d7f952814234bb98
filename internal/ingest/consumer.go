package ingest

import (
	"context"
	"log/slog"
	"sort"

	"github.com/docsift/docsift/internal/document"
	"github.com/docsift/docsift/internal/store"
	"github.com/docsift/docsift/pkg/kafka"
)

// HandleDocumentEvent returns a Kafka MessageHandler that stages each
// incoming document for the next rebuild. Malformed events are logged and
// skipped rather than retried: the upstream extractor re-emits on its own
// schedule, and poisoning the partition helps nobody. If meta is non-nil
// the document is also registered as PENDING in PostgreSQL.
func HandleDocumentEvent(staging *Staging, meta *store.Metadata) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if event.DocumentID == "" {
			logger.Error("document event missing document_id", "key", string(key))
			return nil
		}
		pages := normalizeEventPages(event.Pages)
		if pages == nil {
			logger.Error("document event has invalid pages",
				"doc_id", event.DocumentID,
			)
			return nil
		}
		staging.Put(document.Document{ID: event.DocumentID, Pages: pages})
		if meta != nil {
			if err := meta.UpsertDocument(ctx, event.DocumentID, len(pages)); err != nil {
				logger.Error("failed to register document metadata",
					"doc_id", event.DocumentID,
					"error", err,
				)
			}
		}
		logger.Info("document staged",
			"doc_id", event.DocumentID,
			"pages", len(pages),
		)
		return nil
	}
}

// normalizeEventPages sorts pages by number and rejects non-positive or
// duplicate page numbers. Returns nil when the sequence is unusable.
func normalizeEventPages(pages []document.Page) []document.Page {
	out := make([]document.Page, len(pages))
	copy(out, pages)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	prev := 0
	for _, p := range out {
		if p.Number < 1 || p.Number == prev {
			return nil
		}
		prev = p.Number
	}
	return out
}
