package clickhouse

import (
	"fmt"
	"strings"

	"github.com/glasshouse/glasshouse/internal/model"
)

// filterConditions translates a Filter into WHERE predicates and their bound
// arguments. Predicates are emitted in a fixed order and the args slice stays
// position-aligned with the ? placeholders. Every user-supplied value is
// bound, never spliced into the SQL text.
func filterConditions(f model.Filter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	// QueryStart entries carry no completed metrics (duration, memory and
	// result counters are all zero), so they are excluded unconditionally.
	conditions = append(conditions, "type != 'QueryStart'")

	if f.DBName != "" {
		conditions = append(conditions, "has(databases, ?)")
		args = append(args, f.DBName)
	}

	if f.QueryID != "" {
		conditions = append(conditions, "query_id = ?")
		args = append(args, f.QueryID)
	}

	// Failed means an exception was raised during execution, or the query
	// never started at all.
	if f.OnlyFailed {
		conditions = append(conditions, "(exception_code != 0 OR type = 'ExceptionBeforeStart')")
	}

	// Success means a clean finish. OnlyFailed and OnlySuccess may both be
	// set; the predicates simply AND together.
	if f.OnlySuccess {
		conditions = append(conditions, "(type = 'QueryFinish' AND exception_code = 0)")
	}

	if f.MinDurationMs > 0 {
		conditions = append(conditions, "query_duration_ms > ?")
		args = append(args, f.MinDurationMs)
	}

	if f.User != "" {
		conditions = append(conditions, "user = ?")
		args = append(args, f.User)
	}

	if f.QueryContains != "" {
		conditions = append(conditions, "positionCaseInsensitive(query, ?) > 0")
		args = append(args, f.QueryContains)
	}

	if f.QueryKind != "" {
		conditions = append(conditions, "query_kind = ?")
		args = append(args, f.QueryKind)
	}

	if f.StartTime != nil {
		conditions = append(conditions, "event_time >= ?")
		args = append(args, *f.StartTime)
	}

	if f.EndTime != nil {
		conditions = append(conditions, "event_time <= ?")
		args = append(args, *f.EndTime)
	}

	return conditions, args
}

// resolveSort returns the ORDER BY column and direction for a filter. An
// unknown or non-sortable sort_by falls back to the default sort instead of
// failing; most recent first is the default.
func resolveSort(f model.Filter) (column, direction string) {
	column = "event_time"
	direction = "DESC"
	if f.SortBy != "" && IsSortColumn(f.SortBy) {
		column = f.SortBy
	}
	if f.SortOrder == "asc" {
		direction = "ASC"
	}
	return column, direction
}

// buildLogsQuery produces the parameterized listing query for the given
// filter, projection and limit policy. columns must already be validated
// registry names (AllColumns or ParseColumns output); they are the only
// identifiers interpolated into the text.
func buildLogsQuery(f model.Filter, columns []string, limits model.LimitPolicy) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" FROM system.query_log")

	conditions, args := filterConditions(f)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	column, direction := resolveSort(f)
	fmt.Fprintf(&b, " ORDER BY %s %s", column, direction)

	b.WriteString(" LIMIT ?")
	args = append(args, limits.Clamp(f.Limit))

	// A zero offset is omitted entirely, not bound as OFFSET 0.
	if f.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, f.Offset)
	}

	return b.String(), args
}

// buildMetricsQuery produces the time-bucketed aggregation query. The bucket
// interval is interpolated, not bound: ClickHouse does not accept a parameter
// in the INTERVAL position, and Bucket is a sealed enumeration so no user
// input can reach it. Pagination does not apply to aggregates.
func buildMetricsQuery(f model.Filter, bucket Bucket) (string, []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT
		toStartOfInterval(event_time, INTERVAL %s) AS time_bucket,
		COUNT(*) AS total_queries,
		AVG(query_duration_ms) AS avg_duration_ms,
		MAX(query_duration_ms) AS max_duration_ms,
		AVG(memory_usage) AS avg_memory_usage,
		MAX(memory_usage) AS max_memory_usage,
		SUM(read_bytes) AS total_read_bytes,
		SUM(written_bytes) AS total_written_bytes,
		SUM(CASE WHEN exception_code != 0 OR type = 'ExceptionBeforeStart' THEN 1 ELSE 0 END) AS failed_queries
	FROM system.query_log`, bucket.Interval())

	conditions, args := filterConditions(f)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	b.WriteString(" GROUP BY time_bucket ORDER BY time_bucket ASC")

	return b.String(), args
}
