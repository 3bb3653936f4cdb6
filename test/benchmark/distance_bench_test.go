// Package benchmark contains Go benchmarks for index construction, distance
// queries, tokenization and segment persistence.
package benchmark

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/query"
)

// sequence returns n words drawn from a vocabulary of v, seeded so every run
// sees the same corpus.
func sequence(n, v int) []string {
	r := rand.New(rand.NewPCG(1, 2))
	vocab := make([]string, v)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("w%d", i)
	}
	words := make([]string, n)
	copy(words, vocab)
	for i := min(n, v); i < n; i++ {
		words[i] = vocab[r.IntN(v)]
	}
	return words
}

func BenchmarkBuild(b *testing.B) {
	for _, n := range []int{1_000, 100_000, 1_000_000} {
		words := sequence(n, 1000)
		b.Run(fmt.Sprintf("words=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = distance.Build(words)
			}
		})
	}
}

// BenchmarkShortestDistance covers a rare pair, a frequent pair and a
// repeated word. Cost grows with the occurrence counts of the two words, not
// the corpus length.
func BenchmarkShortestDistance(b *testing.B) {
	words := sequence(1_000_000, 1000)
	words[10], words[999_990] = "rare1", "rare2"
	idx := distance.Build(words)
	pairs := []struct {
		name, w1, w2 string
	}{
		{"rare", "rare1", "rare2"},
		{"frequent", "w1", "w2"},
		{"same_word", "w3", "w3"},
	}
	for _, p := range pairs {
		b.Run(p.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := idx.ShortestDistance(p.w1, p.w2); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkShortestDistanceParallel(b *testing.B) {
	idx := distance.Build(sequence(1_000_000, 1000))
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := idx.ShortestDistance("w5", "w500"); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkServiceDistance measures the full query path without a cache.
func BenchmarkServiceDistance(b *testing.B) {
	reg := corpus.NewRegistry(nil, validator.Limits{MaxWords: 1_000_000})
	if _, err := reg.Add(context.Background(), "bench", sequence(100_000, 500)); err != nil {
		b.Fatal(err)
	}
	svc := query.NewService(reg)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Distance(ctx, "bench", "w7", "w70"); err != nil {
			b.Fatal(err)
		}
	}
}
