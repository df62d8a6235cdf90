// Package analytics buffers per-query events and publishes them to Kafka in
// batches, best-effort. Event delivery never blocks or fails a search.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventReload     EventType = "index_reload"
)

// SearchEvent describes one executed query.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Method    string    `json:"method"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// ReloadEvent describes one index reload.
type ReloadEvent struct {
	Type      EventType `json:"type"`
	Docs      int       `json:"docs"`
	Timestamp time.Time `json:"timestamp"`
}
