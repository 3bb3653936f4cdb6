// Package query answers shortest-distance queries against registered
// corpora, with optional Redis caching, metrics and analytics.
package query

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/query/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/tracing"
)

// Corpora resolves a corpus by name; *corpus.Registry implements it.
type Corpora interface {
	Get(name string) (*corpus.Corpus, error)
}

// Tracker ships events off-process (the Kafka collector).
type Tracker interface {
	Track(corpus string, event any)
}

// Recorder aggregates events in-process (the stats aggregator).
type Recorder interface {
	RecordQuery(event analytics.QueryEvent)
}

type Result struct {
	Corpus   string `json:"corpus"`
	Word1    string `json:"word1"`
	Word2    string `json:"word2"`
	Distance int    `json:"distance"`
	CacheHit bool   `json:"cache_hit"`
}

type Service struct {
	corpora  Corpora
	cache    *cache.DistanceCache
	metrics  *metrics.Metrics
	tracker  Tracker
	recorder Recorder
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Service)

func WithCache(c *cache.DistanceCache) Option { return func(s *Service) { s.cache = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithTracker(t Tracker) Option { return func(s *Service) { s.tracker = t } }

func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithTimeout bounds each query; zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func NewService(corpora Corpora, opts ...Option) *Service {
	s := &Service{
		corpora: corpora,
		logger:  slog.Default().With("component", "query-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Distance returns the minimum index gap between word1 and word2 in the named
// corpus. Unknown words yield a *distance.NotFoundError naming the first
// missing word (word1 is checked first).
func (s *Service) Distance(ctx context.Context, corpusName, word1, word2 string) (*Result, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "distance", logger.RequestID(ctx))
	defer func() {
		span.End()
		span.Log(s.logger)
	}()
	span.SetAttr("corpus", corpusName)

	if word1 == "" || word2 == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "word1 and word2 are required")
	}

	c, err := s.corpora.Get(corpusName)
	if err != nil {
		s.observe(metrics.ResultCorpusNotFound, false, 0, start)
		return nil, err
	}

	// WithTimeout abandons fn on deadline, so the result travels over a
	// channel and is read only once fn has returned.
	type lookupResult struct {
		d   int
		hit bool
	}
	out := make(chan lookupResult, 1)
	err = resilience.WithTimeout(ctx, s.timeout, "distance-query", func(ctx context.Context) error {
		_, lookup := tracing.StartChildSpan(ctx, "lookup")
		defer lookup.End()
		var (
			r   lookupResult
			err error
		)
		if s.cache != nil {
			key := cache.Key{Corpus: c.Name, ContentHash: c.ContentHash, Word1: word1, Word2: word2}
			r.d, r.hit, err = s.cache.GetOrCompute(ctx, key, func() (int, error) {
				return c.Index.ShortestDistance(word1, word2)
			})
		} else {
			r.d, err = c.Index.ShortestDistance(word1, word2)
		}
		lookup.SetAttr("cache_hit", r.hit)
		out <- r
		return err
	})
	var (
		d   int
		hit bool
	)
	if err == nil {
		r := <-out
		d, hit = r.d, r.hit
	}
	latency := time.Since(start)
	span.SetAttr("cache_hit", hit)

	if missing, ok := distance.MissingWord(err); ok {
		s.observe(metrics.ResultWordNotFound, false, 0, start)
		s.emit(ctx, analytics.QueryEvent{
			Type:        analytics.EventWordNotFound,
			Corpus:      c.Name,
			Word1:       word1,
			Word2:       word2,
			Distance:    -1,
			MissingWord: missing,
			LatencyMs:   latency.Milliseconds(),
		})
		return nil, err
	}
	if err != nil {
		s.observe(metrics.ResultError, false, 0, start)
		logger.FromContext(ctx).Error("distance query failed", "corpus", c.Name, "error", err)
		if errors.Is(err, apperrors.ErrTimeout) {
			return nil, apperrors.New(apperrors.ErrTimeout, http.StatusServiceUnavailable, "query timed out")
		}
		return nil, err
	}

	s.observe(metrics.ResultFound, hit, d, start)
	s.emit(ctx, analytics.QueryEvent{
		Type:      analytics.EventQuery,
		Corpus:    c.Name,
		Word1:     word1,
		Word2:     word2,
		Distance:  d,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  hit,
	})
	logger.FromContext(ctx).Debug("distance computed",
		"corpus", c.Name,
		"word1", word1,
		"word2", word2,
		"distance", d,
		"cache_hit", hit,
		"latency", latency,
	)
	return &Result{Corpus: c.Name, Word1: word1, Word2: word2, Distance: d, CacheHit: hit}, nil
}

// CacheStats reports cache counters; ok is false when caching is disabled.
func (s *Service) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// InvalidateCache drops cached results for corpus, or all results when
// corpus is empty. It is a no-op without a cache.
func (s *Service) InvalidateCache(ctx context.Context, corpus string) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.Invalidate(ctx, corpus)
}

func (s *Service) observe(result string, hit bool, d int, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.DistanceQueriesTotal.WithLabelValues(result).Inc()
	if result != metrics.ResultFound {
		return
	}
	status := "miss"
	if s.cache == nil {
		status = "disabled"
	} else if hit {
		status = "hit"
		s.metrics.CacheHitsTotal.Inc()
	} else {
		s.metrics.CacheMissesTotal.Inc()
	}
	s.metrics.DistanceLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	s.metrics.DistanceValue.Observe(float64(d))
}

func (s *Service) emit(ctx context.Context, event analytics.QueryEvent) {
	event.Timestamp = time.Now().UTC()
	event.RequestID = logger.RequestID(ctx)
	if s.recorder != nil {
		s.recorder.RecordQuery(event)
	}
	if s.tracker != nil {
		s.tracker.Track(event.Corpus, event)
	}
}
