package model

import "time"

// Filter holds the optional constraints a caller can put on a query-log
// retrieval. Every field is optional; the zero value means "no constraint".
// Field tags drive gin query-string binding.
type Filter struct {
	// DBName matches queries that touched this database (membership test on
	// the databases array).
	DBName string `form:"db_name"`

	// QueryID matches exactly.
	QueryID string `form:"query_id"`

	// OnlyFailed keeps queries with an exception (exception_code != 0 or
	// type = ExceptionBeforeStart). OnlySuccess keeps cleanly finished
	// queries. Setting both is allowed and yields the AND of the two
	// predicates, which matches almost nothing; validation deliberately does
	// not reject the combination.
	OnlyFailed  bool `form:"only_failed"`
	OnlySuccess bool `form:"only_success"`

	// MinDurationMs keeps queries strictly slower than this threshold.
	MinDurationMs uint64 `form:"min_duration_ms"`

	// User matches the executing user exactly.
	User string `form:"user"`

	// QueryContains is a case-insensitive substring match on the query text.
	QueryContains string `form:"query_contains"`

	// QueryKind matches the query kind exactly (Select, Insert, Create, ...).
	QueryKind string `form:"query_kind"`

	// StartTime and EndTime bound event_time inclusively.
	StartTime *time.Time `form:"start_time" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime   *time.Time `form:"end_time" time_format:"2006-01-02T15:04:05Z07:00"`

	// Limit and Offset paginate list results. Limit is clamped by the
	// serving path's LimitPolicy before use.
	Limit  int `form:"limit"`
	Offset int `form:"offset"`

	// Columns is a comma-separated projection list. When set, only these
	// columns are returned and the response carries the column list.
	Columns string `form:"columns"`

	// SortBy names the sort column. Values outside the sort-eligible set are
	// ignored and the default sort (event_time) applies. SortOrder is "asc"
	// or "desc"; anything else means descending.
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// LimitPolicy is the default and ceiling for a serving path's page size.
// Listing and CSV export run under different policies.
type LimitPolicy struct {
	Default int
	Max     int
}

// ListLimits applies to the JSON listing endpoints, ExportLimits to CSV
// export, where operators legitimately pull much larger windows.
var (
	ListLimits   = LimitPolicy{Default: 100, Max: 1000}
	ExportLimits = LimitPolicy{Default: 1000, Max: 100000}
)

// Clamp maps a requested limit into the policy's valid range: non-positive
// requests get the default, oversized requests get the ceiling, everything
// in between passes through.
func (p LimitPolicy) Clamp(requested int) int {
	if requested <= 0 {
		return p.Default
	}
	if requested > p.Max {
		return p.Max
	}
	return requested
}
