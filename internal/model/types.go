package model

import "time"

// LogRecord is one entry of the ClickHouse system.query_log table, restricted
// to the fields the dashboard surfaces. Records are produced by ClickHouse
// itself; this service only reads them.
//
// Reference: https://clickhouse.com/docs/en/operations/system-tables/query_log
type LogRecord struct {
	// QueryID identifies the query. It is not guaranteed unique across time:
	// the same id can appear once per lifecycle event.
	QueryID string `json:"query_id"`

	// Query is the full SQL text as submitted.
	Query string `json:"query"`

	// EventTime is when the lifecycle event occurred.
	EventTime time.Time `json:"event_time"`

	// EventDate is the date portion of EventTime, used for partition pruning.
	EventDate time.Time `json:"event_date"`

	// Type is the lifecycle phase: QueryStart, QueryFinish,
	// ExceptionBeforeStart or ExceptionWhileProcessing.
	Type string `json:"type"`

	// QueryDurationMs is the total execution time in milliseconds.
	QueryDurationMs uint64 `json:"query_duration_ms"`

	// MemoryUsage is the peak memory in bytes. Signed: ClickHouse memory
	// accounting can go negative on corrective deallocations.
	MemoryUsage int64 `json:"memory_usage"`

	ReadRows     uint64 `json:"read_rows"`
	ReadBytes    uint64 `json:"read_bytes"`
	WrittenRows  uint64 `json:"written_rows"`
	WrittenBytes uint64 `json:"written_bytes"`
	ResultRows   uint64 `json:"result_rows"`
	ResultBytes  uint64 `json:"result_bytes"`

	// Databases and Tables list every database/table the query touched.
	Databases []string `json:"databases"`
	Tables    []string `json:"tables"`

	// ExceptionCode is non-zero when the query failed.
	ExceptionCode int32  `json:"exception_code"`
	Exception     string `json:"exception"`

	User           string `json:"user"`
	ClientHostname string `json:"client_hostname"`
	HTTPUserAgent  string `json:"http_user_agent"`

	// InitialUser and InitialQueryID point at the root query of a
	// distributed fan-out; IsInitialQuery marks the root itself (1) versus a
	// remote sub-query (0).
	InitialUser    string `json:"initial_user"`
	InitialQueryID string `json:"initial_query_id"`
	IsInitialQuery uint8  `json:"is_initial_query"`
}

// Failed reports whether the record represents a failed query: an exception
// was raised, or the query never started.
func (r *LogRecord) Failed() bool {
	return r.ExceptionCode != 0 || r.Type == "ExceptionBeforeStart"
}

// MetricBucket is one aggregated time slice of the query log, as plotted by
// the dashboard charts.
type MetricBucket struct {
	TimeBucket        time.Time `json:"time_bucket"`
	TotalQueries      uint64    `json:"total_queries"`
	AvgDurationMs     float64   `json:"avg_duration_ms"`
	MaxDurationMs     uint64    `json:"max_duration_ms"`
	AvgMemoryUsage    float64   `json:"avg_memory_usage"`
	MaxMemoryUsage    int64     `json:"max_memory_usage"`
	TotalReadBytes    uint64    `json:"total_read_bytes"`
	TotalWrittenBytes uint64    `json:"total_written_bytes"`
	FailedQueries     uint64    `json:"failed_queries"`
}

// Pagination describes the window a list response covers. Count is the number
// of records actually returned, which may be short of Limit.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}
