package models

import "time"

// ClanDashboard aggregates the production and staging tallies surfaced on the
// clan overview page.
type ClanDashboard struct {
	ClanID             string    `json:"clan_id"`
	ChestEntries       int       `json:"chest_entries"`
	MemberSnapshots    int       `json:"member_snapshots"`
	EventResults       int       `json:"event_results"`
	PendingSubmissions int       `json:"pending_submissions"`
	MatchedRatio       float64   `json:"matched_ratio"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// SystemMetrics is a lightweight aggregate snapshot of runtime counters,
// served as JSON alongside the Prometheus scrape endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
