// Package ingestion defines the request/response types and Kafka event schemas
// used by the corpus ingestion pipeline.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/tokenizer"
)

// Catalog statuses a corpus moves through.
const (
	StatusPending = "PENDING"
	StatusIndexed = "INDEXED"
	StatusFailed  = "FAILED"
)

// IngestRequest is the JSON body accepted by the corpus ingestion endpoint.
// Exactly one of Words or Text is set.
type IngestRequest struct {
	Name           string   `json:"name"`
	Words          []string `json:"words,omitempty"`
	Text           string   `json:"text,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// Sequence returns the word sequence to index: Words verbatim, or Text split
// by the exact tokenizer.
func (r *IngestRequest) Sequence() []string {
	if len(r.Words) > 0 {
		return r.Words
	}
	return tokenizer.Split(r.Text)
}

// IngestResponse is returned to the caller after a corpus is accepted.
type IngestResponse struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	WordCount int    `json:"word_count"`
}

// IngestEvent is the Kafka message payload produced after a corpus is
// cataloged and ready for indexing.
type IngestEvent struct {
	Name        string    `json:"name"`
	Words       []string  `json:"words"`
	ContentHash string    `json:"content_hash"`
	IngestedAt  time.Time `json:"ingested_at"`
}
