// Package router wires the HTTP routes and the middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/api/handler"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/ratelimit"
)

// Options are the optional pieces of the router; nil fields drop their
// routes or middleware.
type Options struct {
	Health         *health.Checker
	Stats          *analytics.Handler
	StatsHistory   http.HandlerFunc
	Metrics        *metrics.Metrics
	Limiter        *ratelimit.Limiter
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// New builds the API handler.
//
// Route table:
//
//	POST   /api/v1/corpora                   → ingest (201 sync, 202 async)
//	GET    /api/v1/corpora                   → list corpora
//	GET    /api/v1/corpora/{name}            → corpus summary
//	DELETE /api/v1/corpora/{name}            → remove corpus
//	GET    /api/v1/corpora/{name}/distance   → shortest distance
//	GET    /api/v1/ingestions/{name}         → async ingestion status
//	GET    /api/v1/cache/stats               → cache counters
//	POST   /api/v1/cache/invalidate          → drop cached distances
//	GET    /api/v1/stats                     → query analytics
//	GET    /api/v1/stats/history             → saved stats snapshots
//	GET    /health/live, /health/ready       → probes
//
// Middleware chain (outermost first):
//
//	RequestID → CORS → Metrics → RateLimit → Timeout → mux
func New(h *handler.Handler, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/corpora", h.CreateCorpus)
	mux.HandleFunc("GET /api/v1/corpora", h.ListCorpora)
	mux.HandleFunc("GET /api/v1/corpora/{name}", h.GetCorpus)
	mux.HandleFunc("DELETE /api/v1/corpora/{name}", h.DeleteCorpus)
	mux.HandleFunc("GET /api/v1/corpora/{name}/distance", h.Distance)
	mux.HandleFunc("GET /api/v1/ingestions/{name}", h.IngestionStatus)

	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)

	if opts.Stats != nil {
		mux.HandleFunc("GET /api/v1/stats", opts.Stats.Stats)
	}
	if opts.StatsHistory != nil {
		mux.HandleFunc("GET /api/v1/stats/history", opts.StatsHistory)
	}
	if opts.Health != nil {
		mux.HandleFunc("GET /health/live", opts.Health.LiveHandler())
		mux.HandleFunc("GET /health/ready", opts.Health.ReadyHandler())
	}

	mws := []func(http.Handler) http.Handler{pkgmw.RequestID}
	if len(opts.CORSOrigins) > 0 {
		mws = append(mws, pkgmw.CORS(pkgmw.NewCORSConfig(opts.CORSOrigins)))
	}
	if opts.Metrics != nil {
		mws = append(mws, pkgmw.Metrics(opts.Metrics))
	}
	if opts.Limiter != nil {
		mws = append(mws, pkgmw.RateLimit(opts.Limiter))
	}
	if opts.RequestTimeout > 0 {
		mws = append(mws, pkgmw.Timeout(opts.RequestTimeout))
	}
	return pkgmw.Chain(mux, mws...)
}
