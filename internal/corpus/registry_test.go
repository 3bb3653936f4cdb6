package corpus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testLimits = validator.Limits{MaxWords: 100, MaxNameLength: 32}

// memStore is an in-memory Store that can be told to fail.
type memStore struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
	fail  error
	saves int
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]Snapshot)}
}

func (m *memStore) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.fail != nil {
		return m.fail
	}
	m.snaps[snap.Name] = snap
	return nil
}

func (m *memStore) LoadAll(ctx context.Context) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, len(m.snaps))
	for _, s := range m.snaps {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, name)
	return nil
}

func TestRegistryAddAndQuery(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	reg := NewRegistry(store, testLimits)

	words := []string{"practice", "makes", "perfect", "coding", "makes"}
	c, err := reg.Add(ctx, "fixture", words)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	words[0] = "mutated"
	if !c.Index.Contains("practice") {
		t.Error("registry must not alias the caller's slice")
	}

	d, err := reg.ShortestDistance("fixture", "practice", "coding")
	if err != nil || d != 3 {
		t.Errorf("expected 3, got %d (%v)", d, err)
	}
	if _, err := reg.ShortestDistance("fixture", "practice", "golang"); !errors.Is(err, distance.ErrWordNotFound) {
		t.Errorf("expected ErrWordNotFound, got %v", err)
	}
	if _, err := reg.ShortestDistance("missing", "a", "b"); !errors.Is(err, apperrors.ErrCorpusNotFound) {
		t.Errorf("expected ErrCorpusNotFound, got %v", err)
	}
	if _, ok := store.snaps["fixture"]; !ok {
		t.Error("expected corpus to be persisted")
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil, testLimits)
	if _, err := reg.Add(ctx, "dup", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	_, err := reg.Add(ctx, "dup", []string{"b"})
	if !errors.Is(err, apperrors.ErrCorpusExists) {
		t.Fatalf("expected ErrCorpusExists, got %v", err)
	}
	if apperrors.HTTPStatusCode(err) != 409 {
		t.Errorf("expected 409, got %d", apperrors.HTTPStatusCode(err))
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	reg := NewRegistry(nil, testLimits)
	_, err := reg.Add(context.Background(), "bad name", []string{"a"})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if reg.Len() != 0 {
		t.Error("invalid corpus must not be registered")
	}
}

func TestRegistryPersistFailure(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("disk full")
	reg := NewRegistry(store, testLimits)
	reg.retry.InitialDelay = 1

	if _, err := reg.Add(context.Background(), "x", []string{"a"}); err == nil {
		t.Fatal("expected persistence error")
	}
	if store.saves != 3 {
		t.Errorf("expected 3 save attempts, got %d", store.saves)
	}
	if reg.Len() != 0 {
		t.Error("corpus must not be registered when persistence fails")
	}
}

func TestRegistryLoad(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	first := NewRegistry(store, testLimits)
	if _, err := first.Add(ctx, "a", []string{"x", "y", "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := first.Add(ctx, "b", []string{"p", "q"}); err != nil {
		t.Fatal(err)
	}
	store.snaps["broken"] = Snapshot{Name: "broken"}

	second := NewRegistry(store, testLimits)
	n, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 loaded, got %d", n)
	}
	list := second.List()
	if len(list) != 2 || list[0].Name != "a" || list[1].Name != "b" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].WordCount != 3 || list[0].DistinctWords != 2 {
		t.Errorf("unexpected summary %+v", list[0])
	}
	if d, _ := second.ShortestDistance("a", "x", "y"); d != 1 {
		t.Errorf("expected 1, got %d", d)
	}
}

func TestRegistryIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil, testLimits)
	req := &ingestion.IngestRequest{Name: "text", Text: "a b, a b a", IdempotencyKey: "k1"}

	resp, err := reg.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if resp.Status != ingestion.StatusIndexed || resp.WordCount != 5 {
		t.Errorf("unexpected response %+v", resp)
	}
	again, err := reg.Ingest(ctx, req)
	if err != nil {
		t.Fatalf("retried ingest should succeed, got %v", err)
	}
	if again.Name != "text" {
		t.Errorf("unexpected response %+v", again)
	}

	different := &ingestion.IngestRequest{Name: "text", Text: "other words", IdempotencyKey: "k2"}
	if _, err := reg.Ingest(ctx, different); !errors.Is(err, apperrors.ErrCorpusExists) {
		t.Errorf("expected conflict for different content, got %v", err)
	}
}

func TestRegistryRemove(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	reg := NewRegistry(store, testLimits)
	if _, err := reg.Add(ctx, "gone", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Remove(ctx, "gone"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := reg.Get("gone"); !errors.Is(err, apperrors.ErrCorpusNotFound) {
		t.Errorf("expected not found after remove, got %v", err)
	}
	if len(store.snaps) != 0 {
		t.Error("expected snapshot deleted")
	}
	if err := reg.Remove(ctx, "gone"); !errors.Is(err, apperrors.ErrCorpusNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRegistryConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil, testLimits)
	if _, err := reg.Add(ctx, "shared", []string{"a", "b", "a", "b", "a"}); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d, err := reg.ShortestDistance("shared", "a", "b")
				if err != nil || d != 1 {
					errs <- errors.New("unexpected concurrent result")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestContentHashSeparatesWords(t *testing.T) {
	if ContentHash([]string{"ab", "c"}) == ContentHash([]string{"a", "bc"}) {
		t.Error("expected different hashes")
	}
	if ContentHash([]string{"a"}) != ContentHash([]string{"a"}) {
		t.Error("expected stable hash")
	}
}

func TestRegistryMetrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	reg := NewRegistry(nil, testLimits)
	reg.SetMetrics(m)

	if _, err := reg.Add(ctx, "a", []string{"x", "y", "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Add(ctx, "b", []string{"z"}); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.CorporaRegistered); got != 2 {
		t.Errorf("expected 2 registered, got %v", got)
	}
	if got := testutil.ToFloat64(m.CorpusWords.WithLabelValues("a")); got != 3 {
		t.Errorf("expected 3 words for a, got %v", got)
	}
	if err := reg.Remove(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.CorporaRegistered); got != 1 {
		t.Errorf("expected 1 registered after remove, got %v", got)
	}
	if got := testutil.ToFloat64(m.CorporaIndexedTotal); got != 2 {
		t.Errorf("expected 2 indexed, got %v", got)
	}
}

func TestRegistryRejectsNULWords(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil, testLimits)
	if _, err := reg.Add(ctx, "plain", []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	// ["a\x00b"] would hash like ["a","b"] and replay as the wrong corpus.
	req := &ingestion.IngestRequest{Name: "plain", Words: []string{"a\x00b"}, IdempotencyKey: "k"}
	if _, err := reg.Ingest(ctx, req); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
