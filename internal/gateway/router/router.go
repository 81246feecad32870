// Package router wires every HTTP route of the service and applies the
// middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/gateway/ratelimit"
	gwmw "github.com/Adithya-Monish-Kumar-K/docqa/internal/gateway/middleware"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/handler"
	searchhandler "github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/docqa/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/tracing"
)

// Deps carries the handlers and cross-cutting collaborators. Limiter,
// Metrics and Analytics may be nil; TracingService empty disables tracing.
type Deps struct {
	Ingestion      *ingesthandler.Handler
	Search         *searchhandler.Handler
	Analytics      *analytics.Handler
	Health         *health.Checker
	Limiter        *ratelimit.Limiter
	Metrics        *metrics.Metrics
	CORS           gwmw.CORSConfig
	RequestTimeout time.Duration
	TracingService string
}

// New builds the HTTP handler.
//
// Route table:
//
//	POST   /api/upload            multipart PDF upload (field "pdf")
//	POST   /api/documents         index pre-extracted text
//	POST   /api/ask               answer a question
//	GET    /api/document          live document metadata
//	GET    /api/analytics         aggregated question analytics
//	GET    /api/cache/stats       answer cache statistics
//	POST   /api/cache/invalidate  drop cached answers
//	GET    /health/live           liveness
//	GET    /health/ready          readiness
//
// Middleware chain (outermost first):
//
//	RequestID → Recover → CORS → RateLimit → mux → Tracing → Metrics → Timeout → handler
//
// Tracing, Metrics and Timeout run per route so they see the matched pattern.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		var chain http.Handler = h
		chain = pkgmw.Timeout(d.RequestTimeout)(chain)
		if d.Metrics != nil {
			chain = pkgmw.Metrics(d.Metrics)(chain)
		}
		if d.TracingService != "" {
			chain = tracing.Middleware(d.TracingService)(chain)
		}
		mux.Handle(pattern, chain)
	}

	if d.Health != nil {
		mux.HandleFunc("GET /health/live", d.Health.LiveHandler())
		mux.HandleFunc("GET /health/ready", d.Health.ReadyHandler())
	}

	if d.Ingestion != nil {
		route("POST /api/upload", d.Ingestion.Upload)
		route("POST /api/documents", d.Ingestion.Documents)
	}

	if d.Search != nil {
		route("POST /api/ask", d.Search.Ask)
		route("GET /api/document", d.Search.Document)
		route("GET /api/cache/stats", d.Search.CacheStats)
		route("POST /api/cache/invalidate", d.Search.CacheInvalidate)
	}

	if d.Analytics != nil {
		route("GET /api/analytics", d.Analytics.Stats)
	}

	var chain http.Handler = mux
	if d.Limiter != nil {
		chain = gwmw.RateLimit(d.Limiter, d.Metrics)(chain)
	}
	chain = gwmw.CORS(d.CORS)(chain)
	chain = pkgmw.Recover(d.Metrics)(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
