package server

import (
	"net/http"
	"time"

	"github.com/docsift/docsift/pkg/health"
	"github.com/docsift/docsift/pkg/metrics"
	"github.com/docsift/docsift/pkg/middleware"
)

// NewRouter assembles the HTTP mux with the standard middleware chain:
// request ID, metrics, request timeout.
func NewRouter(h *Handler, checker *health.Checker, m *metrics.Metrics, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", h.Search)
	mux.HandleFunc("/rebuild", h.Rebuild)
	mux.HandleFunc("/health/live", checker.LiveHandler())
	mux.HandleFunc("/health/ready", checker.ReadyHandler())

	var handler http.Handler = mux
	handler = middleware.Timeout(requestTimeout)(handler)
	if m != nil {
		handler = middleware.Metrics(m)(handler)
	}
	handler = middleware.RequestID(handler)
	return handler
}
