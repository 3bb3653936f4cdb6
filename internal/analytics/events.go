package analytics

import "time"

type EventType string

const (
	EventQuery        EventType = "query"
	EventWordNotFound EventType = "word_not_found"
	EventCorpusIndex  EventType = "corpus_indexed"
)

// QueryEvent describes one distance query as seen by the query service.
type QueryEvent struct {
	Type        EventType `json:"type"`
	Corpus      string    `json:"corpus"`
	Word1       string    `json:"word1"`
	Word2       string    `json:"word2"`
	Distance    int       `json:"distance"`
	MissingWord string    `json:"missing_word,omitempty"`
	LatencyMs   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}

// IndexEvent is emitted when a corpus finishes indexing.
type IndexEvent struct {
	Type          EventType `json:"type"`
	Corpus        string    `json:"corpus"`
	WordCount     int       `json:"word_count"`
	DistinctWords int       `json:"distinct_words"`
	LatencyMs     int64     `json:"latency_ms"`
	Timestamp     time.Time `json:"timestamp"`
}
