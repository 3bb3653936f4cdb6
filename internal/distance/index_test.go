package distance

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func fixture() []string {
	return []string{"practice", "makes", "perfect", "coding", "makes"}
}

func TestShortestDistance(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		word1 string
		word2 string
		want  int
	}{
		{"practice coding", fixture(), "practice", "coding", 3},
		{"coding makes", fixture(), "coding", "makes", 1},
		{"makes practice", fixture(), "makes", "practice", 1},
		{"alternating", []string{"a", "b", "a", "b", "a"}, "a", "b", 1},
		{"far apart", []string{"x", "q", "q", "q", "q", "y"}, "x", "y", 5},
		{"adjacent at end", []string{"q", "q", "x", "y"}, "x", "y", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := Build(tt.words)
			got, err := idx.ShortestDistance(tt.word1, tt.word2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestShortestDistanceMissingWord(t *testing.T) {
	idx := Build([]string{"x"})
	_, err := idx.ShortestDistance("x", "y")
	if !errors.Is(err, ErrWordNotFound) {
		t.Fatalf("expected ErrWordNotFound, got %v", err)
	}
	word, ok := MissingWord(err)
	if !ok || word != "y" {
		t.Errorf("expected missing word %q, got %q (ok=%v)", "y", word, ok)
	}
}

func TestShortestDistanceEmptyIndex(t *testing.T) {
	idx := Build(nil)
	if idx.Len() != 0 || idx.WordCount() != 0 {
		t.Fatalf("expected empty index, got len=%d words=%d", idx.Len(), idx.WordCount())
	}
	_, err := idx.ShortestDistance("a", "b")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Word != "a" {
		t.Errorf("expected first missing word to be reported, got %q", nf.Word)
	}
	if _, err := idx.ShortestDistance("b", "b"); !errors.Is(err, ErrWordNotFound) {
		t.Errorf("expected ErrWordNotFound for self query, got %v", err)
	}
}

func TestShortestDistanceSameWord(t *testing.T) {
	idx := Build([]string{"a", "b", "b", "c", "a", "d", "e", "a"})
	got, err := idx.ShortestDistance("a", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3 {
		t.Errorf("expected minimum gap 3 between distinct occurrences, got %d", got)
	}
	got, err = idx.ShortestDistance("b", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	got, err = idx.ShortestDistance("c", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected single occurrence to yield 0, got %d", got)
	}
}

func TestBuildPositions(t *testing.T) {
	idx := Build(fixture())
	occ, ok := idx.Positions("makes")
	if !ok {
		t.Fatal("expected makes to be indexed")
	}
	if len(occ) != 2 || occ[0] != 1 || occ[1] != 4 {
		t.Errorf("expected [1 4], got %v", occ)
	}
	occ[0] = 99
	again, _ := idx.Positions("makes")
	if again[0] != 1 {
		t.Error("Positions must return a copy")
	}
	if _, ok := idx.Positions("missing"); ok {
		t.Error("expected missing word to be absent")
	}
	if idx.Len() != 5 {
		t.Errorf("expected len 5, got %d", idx.Len())
	}
	if idx.WordCount() != 4 {
		t.Errorf("expected 4 distinct words, got %d", idx.WordCount())
	}
	words := idx.Words()
	want := []string{"coding", "makes", "perfect", "practice"}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, words)
		}
	}
}

func TestBuildIsCaseSensitive(t *testing.T) {
	idx := Build([]string{"Go", "go"})
	if !idx.Contains("Go") || !idx.Contains("go") {
		t.Fatal("expected both spellings to be indexed")
	}
	if idx.WordCount() != 2 {
		t.Errorf("expected 2 distinct words, got %d", idx.WordCount())
	}
}

// TestShortestDistanceMatchesCrossProduct compares the merge against the
// full cross product on random small sequences.
func TestShortestDistanceMatchesCrossProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocab := []string{"a", "b", "c", "d", "e"}
	for round := 0; round < 500; round++ {
		n := 1 + rng.Intn(40)
		words := make([]string, n)
		for i := range words {
			words[i] = vocab[rng.Intn(len(vocab))]
		}
		idx := Build(words)
		for _, w1 := range vocab {
			for _, w2 := range vocab {
				got, err := idx.ShortestDistance(w1, w2)
				want, present := bruteForce(words, w1, w2)
				if !present {
					if !errors.Is(err, ErrWordNotFound) {
						t.Fatalf("round %d: expected not found for (%s,%s), got %d, %v", round, w1, w2, got, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("round %d: unexpected error: %v", round, err)
				}
				if got != want {
					t.Fatalf("round %d %v: (%s,%s) expected %d, got %d", round, words, w1, w2, want, got)
				}
				if got < 0 || got > n-1 {
					t.Fatalf("round %d: distance %d out of range for length %d", round, got, n)
				}
				rev, _ := idx.ShortestDistance(w2, w1)
				if rev != got {
					t.Fatalf("round %d: asymmetric result (%s,%s)=%d, reversed %d", round, w1, w2, got, rev)
				}
			}
		}
	}
}

// bruteForce checks every pair of distinct positions.
func bruteForce(words []string, w1, w2 string) (int, bool) {
	best := -1
	seen1, seen2 := false, false
	for i, a := range words {
		if a == w1 {
			seen1 = true
		}
		if a == w2 {
			seen2 = true
		}
		if a != w1 {
			continue
		}
		for j, b := range words {
			if b != w2 || i == j {
				continue
			}
			d := i - j
			if d < 0 {
				d = -d
			}
			if best < 0 || d < best {
				best = d
			}
		}
	}
	if !seen1 || !seen2 {
		return 0, false
	}
	if best < 0 {
		// a lone occurrence queried against itself
		return 0, true
	}
	return best, true
}

func ExampleIndex_ShortestDistance() {
	idx := Build([]string{"practice", "makes", "perfect", "coding", "makes"})
	d, _ := idx.ShortestDistance("coding", "makes")
	fmt.Println(d)
	_, err := idx.ShortestDistance("coding", "golang")
	fmt.Println(err)
	// Output:
	// 1
	// word not found: "golang"
}
