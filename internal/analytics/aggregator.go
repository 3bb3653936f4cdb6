package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/kafka"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalQueries     int64      `json:"total_queries"`
	CorporaIndexed   int64      `json:"corpora_indexed"`
	CacheHits        int64      `json:"cache_hits"`
	CacheMisses      int64      `json:"cache_misses"`
	NotFoundCount    int64      `json:"not_found_count"`
	AvgLatencyMs     float64    `json:"avg_latency_ms"`
	P50LatencyMs     int64      `json:"p50_latency_ms"`
	P95LatencyMs     int64      `json:"p95_latency_ms"`
	P99LatencyMs     int64      `json:"p99_latency_ms"`
	TopPairs         []KeyCount `json:"top_pairs"`
	TopMissingWords  []KeyCount `json:"top_missing_words"`
	QueriesPerMinute float64    `json:"queries_per_minute"`
}

type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Aggregator keeps rolling query statistics. It can be fed directly with
// Record* or from the query-events topic through HandleEvent.
type Aggregator struct {
	mu             sync.RWMutex
	totalQueries   atomic.Int64
	corporaIndexed atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	notFound       atomic.Int64
	latencies      []int64
	next           int
	pairCounts     map[string]int64
	missingCounts  map[string]int64
	startTime      time.Time
	logger         *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:     make([]int64, 0, 1024),
		pairCounts:    make(map[string]int64),
		missingCounts: make(map[string]int64),
		startTime:     time.Now(),
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent adapts the aggregator to a Kafka consumer.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		probe, err := kafka.DecodeJSON[struct {
			Type EventType `json:"type"`
		}](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		switch probe.Type {
		case EventCorpusIndex:
			if ev, err := kafka.DecodeJSON[IndexEvent](value); err == nil {
				agg.RecordIndex(ev)
			}
		case EventQuery, EventWordNotFound:
			if ev, err := kafka.DecodeJSON[QueryEvent](value); err == nil {
				agg.RecordQuery(ev)
			}
		default:
			agg.logger.Warn("unknown analytics event type", "type", probe.Type)
		}
		return nil
	}
}

func (a *Aggregator) RecordQuery(event QueryEvent) {
	a.totalQueries.Add(1)
	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}
	if event.Type == EventWordNotFound {
		a.notFound.Add(1)
	}

	a.mu.Lock()
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencySamples
	}
	a.pairCounts[event.Corpus+":"+event.Word1+"/"+event.Word2]++
	if event.MissingWord != "" {
		a.missingCounts[event.Corpus+":"+event.MissingWord]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) RecordIndex(event IndexEvent) {
	a.corporaIndexed.Add(1)
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:   a.totalQueries.Load(),
		CorporaIndexed: a.corporaIndexed.Load(),
		CacheHits:      a.cacheHits.Load(),
		CacheMisses:    a.cacheMisses.Load(),
		NotFoundCount:  a.notFound.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopPairs = topN(a.pairCounts, 10)
	stats.TopMissingWords = topN(a.missingCounts, 10)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then key, so output is stable.
func topN(counts map[string]int64, n int) []KeyCount {
	result := make([]KeyCount, 0, len(counts))
	for key, count := range counts {
		result = append(result, KeyCount{Key: key, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
