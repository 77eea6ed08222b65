package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/glasshouse/glasshouse/internal/model"
)

// Logs retrieves full query-log records matching the filter, most recent
// first unless the filter says otherwise. The listing limit policy applies.
func (s *Store) Logs(ctx context.Context, f model.Filter) ([]model.LogRecord, error) {
	query, args := buildLogsQuery(f, AllColumns(), model.ListLimits)

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list logs", err)
	}
	defer rows.Close()

	var records []model.LogRecord
	for rows.Next() {
		rec, err := scanLogRecord(rows)
		if err != nil {
			return nil, storeError("scan log row", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate log rows", err)
	}
	return records, nil
}

// LogsProjected retrieves only the requested columns, as column-keyed maps.
// columns must come from ParseColumns; limits selects the listing or export
// clamp.
func (s *Store) LogsProjected(ctx context.Context, f model.Filter, columns []string, limits model.LimitPolicy) ([]map[string]interface{}, error) {
	query, args := buildLogsQuery(f, columns, limits)

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("list logs", err)
	}
	defer rows.Close()

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		row, err := projectedRow(rows, columns)
		if err != nil {
			var drift *SchemaDriftError
			if errors.As(err, &drift) {
				return nil, err
			}
			return nil, storeError("scan log row", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate log rows", err)
	}
	return results, nil
}

// AggregatedMetrics returns time-bucketed aggregates for the filter's time
// range, chronological for charting, along with the bucket granularity used.
func (s *Store) AggregatedMetrics(ctx context.Context, f model.Filter) ([]model.MetricBucket, Bucket, error) {
	bucket := DetermineBucket(f.StartTime, f.EndTime)
	query, args := buildMetricsQuery(f, bucket)

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, bucket, storeError("aggregate metrics", err)
	}
	defer rows.Close()

	var buckets []model.MetricBucket
	for rows.Next() {
		var m model.MetricBucket
		err := rows.Scan(
			&m.TimeBucket,
			&m.TotalQueries,
			&m.AvgDurationMs,
			&m.MaxDurationMs,
			&m.AvgMemoryUsage,
			&m.MaxMemoryUsage,
			&m.TotalReadBytes,
			&m.TotalWrittenBytes,
			&m.FailedQueries,
		)
		if err != nil {
			return nil, bucket, storeError("scan metrics row", err)
		}
		buckets = append(buckets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, bucket, storeError("iterate metrics rows", err)
	}
	return buckets, bucket, nil
}

// Databases lists every database known to the cluster, sorted by name.
func (s *Store) Databases(ctx context.Context) ([]string, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM system.databases ORDER BY name")
	if err != nil {
		return nil, storeError("list databases", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeError("scan database name", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate database rows", err)
	}
	return names, nil
}

// LogByID fetches a single record by query id. Ids repeat across lifecycle
// events and can recur over time, so the most recent event wins. Unlike the
// listing path, start-phase events are eligible here: an operator inspecting
// one id wants whatever the log holds for it. Returns ErrNotFound when
// nothing matches.
func (s *Store) LogByID(ctx context.Context, queryID string) (*model.LogRecord, error) {
	query := "SELECT " + strings.Join(AllColumns(), ", ") +
		" FROM system.query_log WHERE query_id = ? ORDER BY event_time DESC LIMIT 1"

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rec, err := scanLogRecord(s.db.QueryRowContext(ctx, query, queryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeError("get log by id", err)
	}
	return &rec, nil
}
