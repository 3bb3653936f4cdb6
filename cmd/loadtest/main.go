// Command loadtest seeds a synthetic corpus into a running server and then
// hammers its distance endpoint from concurrent workers, printing latency
// percentiles, cache hit ratio and status code counts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	Corpus      string
	Concurrency int
	Duration    time.Duration
	Words       int
	Vocabulary  int
}

type Stats struct {
	total     atomic.Int64
	success   atomic.Int64
	failed    atomic.Int64
	cacheHits atomic.Int64

	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) Record(latency time.Duration, status int, cacheHit bool, err error) {
	s.total.Add(1)
	if err != nil {
		s.failed.Add(1)
		return
	}
	if status == http.StatusOK {
		s.success.Add(1)
	} else {
		s.failed.Add(1)
	}
	if cacheHit {
		s.cacheHits.Add(1)
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, latency)
	s.statusCodes[status]++
	s.mu.Unlock()
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the word distance server")
	flag.StringVar(&cfg.Corpus, "corpus", fmt.Sprintf("loadtest-%d", time.Now().Unix()), "corpus name to seed and query")
	flag.IntVar(&cfg.Concurrency, "concurrency", 10, "number of concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "test duration")
	flag.IntVar(&cfg.Words, "words", 200000, "length of the seeded word sequence")
	flag.IntVar(&cfg.Vocabulary, "vocab", 500, "number of distinct words in the corpus")
	flag.Parse()

	fmt.Println("=== Word Distance Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Corpus:      %s (%d words, %d distinct)\n", cfg.Corpus, cfg.Words, cfg.Vocabulary)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Println()

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	vocab := vocabulary(cfg.Vocabulary)
	if err := seed(client, cfg, vocab); err != nil {
		fmt.Fprintf(os.Stderr, "seeding corpus failed: %v\n", err)
		os.Exit(1)
	}

	stats := run(client, cfg, vocab)
	printReport(stats, cfg.Duration)
}

func vocabulary(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	return words
}

// seed uploads a sequence that contains every vocabulary word at least once,
// so every generated query has an answer.
func seed(client *http.Client, cfg Config, vocab []string) error {
	words := make([]string, 0, max(cfg.Words, len(vocab)))
	words = append(words, vocab...)
	for len(words) < cfg.Words {
		words = append(words, vocab[rand.IntN(len(vocab))])
	}
	rand.Shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })

	body, err := json.Marshal(map[string]any{"name": cfg.Corpus, "words": words})
	if err != nil {
		return err
	}
	resp, err := client.Post(cfg.BaseURL+"/api/v1/corpora", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusConflict:
		return nil
	case http.StatusAccepted:
		return waitIndexed(client, cfg)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func waitIndexed(client *http.Client, cfg Config) error {
	deadline := time.Now().Add(time.Minute)
	for time.Now().Before(deadline) {
		resp, err := client.Get(cfg.BaseURL + "/api/v1/corpora/" + url.PathEscape(cfg.Corpus))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("corpus %s was not indexed within a minute", cfg.Corpus)
}

func run(client *http.Client, cfg Config, vocab []string) *Stats {
	stats := NewStats()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				// a small hot set makes the cache visible in the report
				pool := vocab
				if rand.IntN(4) > 0 {
					pool = vocab[:min(len(vocab), 20)]
				}
				q := url.Values{}
				q.Set("word1", pool[rand.IntN(len(pool))])
				q.Set("word2", pool[rand.IntN(len(pool))])
				target := fmt.Sprintf("%s/api/v1/corpora/%s/distance?%s", cfg.BaseURL, url.PathEscape(cfg.Corpus), q.Encode())

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
				if err != nil {
					stats.Record(0, 0, false, err)
					continue
				}
				start := time.Now()
				resp, err := client.Do(req)
				latency := time.Since(start)
				if err != nil {
					if ctx.Err() == nil {
						stats.Record(latency, 0, false, err)
					}
					continue
				}
				var body struct {
					CacheHit bool `json:"cache_hit"`
				}
				json.NewDecoder(resp.Body).Decode(&body)
				resp.Body.Close()
				stats.Record(latency, resp.StatusCode, body.CacheHit, nil)
			}
		}()
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.total.Load()
	success := stats.success.Load()
	failed := stats.failed.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Failed:          %d\n", failed)
	if total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(failed)/float64(total)*100)
		fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}
	if success > 0 {
		fmt.Printf("Cache Hit Rate:  %.2f%%\n", float64(stats.cacheHits.Load())/float64(success)*100)
	}

	stats.mu.Lock()
	latencies := append([]time.Duration(nil), stats.latencies...)
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	counts := stats.statusCodes
	stats.mu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, counts[code])
	}

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the server running?")
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}
