// Package proto defines the messages exchanged over the JSON-over-TCP RPC
// layer (see pkg/rpc). Field names match the HTTP API's JSON.
package proto

// Method names served by the distance server.
const (
	MethodShortestDistance = "DistanceService.ShortestDistance"
	MethodListCorpora      = "DistanceService.ListCorpora"
	MethodHealth           = "DistanceService.Health"
)

// ---------- Distance ----------

type DistanceRequest struct {
	Corpus string `json:"corpus"`
	Word1  string `json:"word1"`
	Word2  string `json:"word2"`
}

type DistanceResponse struct {
	Corpus   string `json:"corpus"`
	Word1    string `json:"word1"`
	Word2    string `json:"word2"`
	Distance int    `json:"distance"`
	CacheHit bool   `json:"cache_hit"`
}

// ---------- Corpora ----------

type ListCorporaRequest struct{}

type CorpusInfo struct {
	Name          string `json:"name"`
	WordCount     int    `json:"word_count"`
	DistinctWords int    `json:"distinct_words"`
	ContentHash   string `json:"content_hash"`
	CreatedAt     int64  `json:"created_at"`
}

type ListCorporaResponse struct {
	Corpora []CorpusInfo `json:"corpora"`
}

// ---------- Health ----------

// HealthCheckResponse mirrors the gRPC health check statuses.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING
}
