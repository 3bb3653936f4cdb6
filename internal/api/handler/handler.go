// Package handler implements the HTTP API: corpus ingestion and listing,
// distance queries, cache administration.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/logger"
)

// maxBodyBytes caps ingest bodies; a million-word corpus fits comfortably.
const maxBodyBytes = 64 << 20

type Corpora interface {
	Get(name string) (*corpus.Corpus, error)
	List() []corpus.Summary
	Remove(ctx context.Context, name string) error
}

// Ingester is the sync registry path or the async Kafka publisher.
type Ingester interface {
	Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error)
}

// Catalog exposes async ingestion state; nil when Postgres is disabled.
type Catalog interface {
	Get(ctx context.Context, name string) (*catalog.Record, error)
	Delete(ctx context.Context, name string) error
}

type Handler struct {
	corpora  Corpora
	ingester Ingester
	query    *query.Service
	catalog  Catalog
	logger   *slog.Logger
}

func New(corpora Corpora, ingester Ingester, svc *query.Service, cat Catalog) *Handler {
	return &Handler{
		corpora:  corpora,
		ingester: ingester,
		query:    svc,
		catalog:  cat,
		logger:   slog.Default().With("component", "api-handler"),
	}
}

// CreateCorpus serves POST /api/v1/corpora. 201 when the corpus is
// queryable on return, 202 when it was queued for indexing.
func (h *Handler) CreateCorpus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req ingestion.IngestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.ingester.Ingest(ctx, &req)
	if err != nil {
		log.Warn("ingestion rejected", "corpus", req.Name, "error", err)
		h.writeAppError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Status == ingestion.StatusPending {
		status = http.StatusAccepted
	}
	log.Info("corpus ingested", "corpus", resp.Name, "status", resp.Status, "words", resp.WordCount)
	h.writeJSON(w, status, resp)
}

// ListCorpora serves GET /api/v1/corpora.
func (h *Handler) ListCorpora(w http.ResponseWriter, r *http.Request) {
	list := h.corpora.List()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"corpora": list,
		"total":   len(list),
	})
}

// GetCorpus serves GET /api/v1/corpora/{name}.
func (h *Handler) GetCorpus(w http.ResponseWriter, r *http.Request) {
	c, err := h.corpora.Get(r.PathValue("name"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, c.Summary())
}

// DeleteCorpus serves DELETE /api/v1/corpora/{name}. Cached distances and
// the catalog row go with it.
func (h *Handler) DeleteCorpus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")
	if err := h.corpora.Remove(ctx, name); err != nil {
		h.writeAppError(w, err)
		return
	}
	if _, err := h.query.InvalidateCache(ctx, name); err != nil {
		logger.FromContext(ctx).Warn("cache invalidation after delete failed", "corpus", name, "error", err)
	}
	if h.catalog != nil {
		if err := h.catalog.Delete(ctx, name); err != nil {
			logger.FromContext(ctx).Warn("catalog delete failed", "corpus", name, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// IngestionStatus serves GET /api/v1/ingestions/{name} from the catalog.
func (h *Handler) IngestionStatus(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		h.writeError(w, http.StatusNotFound, "ingestion catalog is disabled")
		return
	}
	rec, err := h.catalog.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// Distance serves GET /api/v1/corpora/{name}/distance?word1=&word2=.
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	word1, word2 := q.Get("word1"), q.Get("word2")
	if word1 == "" || word2 == "" {
		h.writeError(w, http.StatusBadRequest, "query parameters 'word1' and 'word2' are required")
		return
	}
	res, err := h.query.Distance(r.Context(), r.PathValue("name"), word1, word2)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.query.CacheStats()
	if !ok {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	total := stats.Hits + stats.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":          stats.Hits,
		"misses":        stats.Misses,
		"total":         total,
		"hit_rate":      hitRate,
		"breaker_state": stats.BreakerState,
	})
}

// CacheInvalidate serves POST /api/v1/cache/invalidate[?corpus=name].
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.query.CacheStats(); !ok {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.query.InvalidateCache(r.Context(), r.URL.Query().Get("corpus"))
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// writeAppError maps err to its HTTP status. Missing words and validation
// failures carry extra fields for clients.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	if word, ok := distance.MissingWord(err); ok {
		h.writeJSON(w, status, map[string]string{"error": "word not found", "word": word})
		return
	}
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		h.writeJSON(w, status, map[string]any{"error": "validation failed", "fields": verr.Fields})
		return
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.writeError(w, status, appErr.Message)
		return
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		h.writeError(w, status, "internal error")
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
