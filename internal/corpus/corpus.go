// Package corpus keeps named, immutable word sequences together with their
// distance indexes and persists them through a pluggable Store.
package corpus

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
)

// Corpus is a registered word sequence. Its index is read-only.
type Corpus struct {
	Name        string
	ContentHash string
	CreatedAt   time.Time
	Index       *distance.Index
}

// Summary is the JSON view of a corpus.
type Summary struct {
	Name          string    `json:"name"`
	WordCount     int       `json:"word_count"`
	DistinctWords int       `json:"distinct_words"`
	ContentHash   string    `json:"content_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

func (c *Corpus) Summary() Summary {
	return Summary{
		Name:          c.Name,
		WordCount:     c.Index.Len(),
		DistinctWords: c.Index.WordCount(),
		ContentHash:   c.ContentHash,
		CreatedAt:     c.CreatedAt,
	}
}

// Snapshot is the persisted form of a corpus: the original sequence is kept
// and the index rebuilt on load.
type Snapshot struct {
	Name        string    `json:"name"`
	Words       []string  `json:"words"`
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists snapshots.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	LoadAll(ctx context.Context) ([]Snapshot, error)
	Delete(ctx context.Context, name string) error
}

// ContentHash fingerprints a word sequence. Words are joined with NUL so that
// ["ab","c"] and ["a","bc"] hash differently.
func ContentHash(words []string) string {
	h := sha256.New()
	for i, w := range words {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(w))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
