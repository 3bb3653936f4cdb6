package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/resilience"
)

// Registry maps corpus names to their indexes. Lookups take a read lock only
// long enough to fetch the pointer; queries then run lock-free on the
// immutable index.
type Registry struct {
	corpora map[string]*Corpus
	mu      sync.RWMutex
	// addMu serialises Add/Remove so persistence and registration of one name
	// cannot interleave with another writer.
	addMu   sync.Mutex
	store   Store
	limits  validator.Limits
	retry   resilience.RetryConfig
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A nil store keeps corpora in memory
// only.
func NewRegistry(store Store, limits validator.Limits) *Registry {
	return &Registry{
		corpora: make(map[string]*Corpus),
		store:   store,
		limits:  limits,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			ShouldRetry: func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			},
		},
		now:    time.Now,
		logger: slog.Default().With("component", "corpus-registry"),
	}
}

// SetMetrics makes the registry keep the corpus gauges current. Call it
// before Load.
func (r *Registry) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Load rebuilds every persisted corpus. Snapshots that fail validation are
// logged and skipped.
func (r *Registry) Load(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	snaps, err := r.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading corpora: %w", err)
	}
	loaded := 0
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range snaps {
		if err := validator.ValidateCorpus(snap.Name, snap.Words, r.limits); err != nil {
			r.logger.Error("skipping invalid persisted corpus", "corpus", snap.Name, "error", err)
			continue
		}
		c := newCorpus(snap)
		r.corpora[c.Name] = c
		loaded++
		r.observeAdded(c, false)
		r.logger.Info("loaded existing corpus",
			"corpus", c.Name,
			"words", c.Index.Len(),
			"distinct_words", c.Index.WordCount(),
		)
	}
	r.logger.Info("corpus recovery complete", "corpora_loaded", loaded)
	return loaded, nil
}

// Add validates, indexes, persists and registers a new corpus. A name can be
// registered only once.
func (r *Registry) Add(ctx context.Context, name string, words []string) (*Corpus, error) {
	if err := validator.ValidateCorpus(name, words, r.limits); err != nil {
		return nil, err
	}
	r.addMu.Lock()
	defer r.addMu.Unlock()

	if _, exists := r.lookup(name); exists {
		return nil, apperrors.Newf(apperrors.ErrCorpusExists, http.StatusConflict, "corpus %q is already registered", name)
	}

	owned := make([]string, len(words))
	copy(owned, words)
	snap := Snapshot{
		Name:        name,
		Words:       owned,
		ContentHash: ContentHash(owned),
		CreatedAt:   r.now().UTC(),
	}
	if r.store != nil {
		err := resilience.Retry(ctx, "persist-corpus", r.retry, func(ctx context.Context) error {
			return r.store.Save(ctx, snap)
		})
		if err != nil {
			return nil, fmt.Errorf("persisting corpus %q: %w", name, err)
		}
	}

	c := newCorpus(snap)
	r.mu.Lock()
	r.corpora[name] = c
	r.mu.Unlock()
	r.observeAdded(c, true)
	r.logger.Info("corpus registered",
		"corpus", name,
		"words", c.Index.Len(),
		"distinct_words", c.Index.WordCount(),
	)
	return c, nil
}

// Ingest is the synchronous ingestion path: the corpus is indexed before the
// call returns. A retried request carrying an idempotency key for an
// identical corpus gets the existing corpus back instead of a conflict.
func (r *Registry) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if err := validator.ValidateIngestRequest(req, r.limits); err != nil {
		return nil, err
	}
	words := req.Sequence()
	if req.IdempotencyKey != "" {
		if existing, ok := r.lookup(req.Name); ok && existing.ContentHash == ContentHash(words) {
			r.logger.Info("duplicate ingestion detected",
				"idempotency_key", req.IdempotencyKey,
				"corpus", req.Name,
			)
			return &ingestion.IngestResponse{
				Name:      existing.Name,
				Status:    ingestion.StatusIndexed,
				WordCount: existing.Index.Len(),
			}, nil
		}
	}
	c, err := r.Add(ctx, req.Name, words)
	if err != nil {
		return nil, err
	}
	return &ingestion.IngestResponse{
		Name:      c.Name,
		Status:    ingestion.StatusIndexed,
		WordCount: c.Index.Len(),
	}, nil
}

// Get returns the corpus registered under name.
func (r *Registry) Get(name string) (*Corpus, error) {
	c, ok := r.lookup(name)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCorpusNotFound, http.StatusNotFound, "corpus %q is not registered", name)
	}
	return c, nil
}

// ShortestDistance looks up the corpus and runs the query on its index.
func (r *Registry) ShortestDistance(name, word1, word2 string) (int, error) {
	c, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	return c.Index.ShortestDistance(word1, word2)
}

// List returns summaries of every corpus sorted by name.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.corpora))
	for _, c := range r.corpora {
		out = append(out, c.Summary())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Remove unregisters a corpus and deletes its persisted snapshot.
func (r *Registry) Remove(ctx context.Context, name string) error {
	r.addMu.Lock()
	defer r.addMu.Unlock()
	if _, ok := r.lookup(name); !ok {
		return apperrors.Newf(apperrors.ErrCorpusNotFound, http.StatusNotFound, "corpus %q is not registered", name)
	}
	if r.store != nil {
		if err := r.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("deleting corpus %q: %w", name, err)
		}
	}
	r.mu.Lock()
	delete(r.corpora, name)
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.CorporaRegistered.Dec()
		r.metrics.CorpusWords.DeleteLabelValues(name)
	}
	r.logger.Info("corpus removed", "corpus", name)
	return nil
}

// Len returns the number of registered corpora.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.corpora)
}

func (r *Registry) lookup(name string) (*Corpus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.corpora[name]
	return c, ok
}

func (r *Registry) observeAdded(c *Corpus, indexed bool) {
	if r.metrics == nil {
		return
	}
	r.metrics.CorporaRegistered.Inc()
	r.metrics.CorpusWords.WithLabelValues(c.Name).Set(float64(c.Index.Len()))
	if indexed {
		r.metrics.CorporaIndexedTotal.Inc()
	}
}

func newCorpus(snap Snapshot) *Corpus {
	hash := snap.ContentHash
	if hash == "" {
		hash = ContentHash(snap.Words)
	}
	return &Corpus{
		Name:        snap.Name,
		ContentHash: hash,
		CreatedAt:   snap.CreatedAt,
		Index:       distance.Build(snap.Words),
	}
}
