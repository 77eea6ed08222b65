package clickhouse

import (
	"database/sql"
	"time"

	"github.com/glasshouse/glasshouse/internal/model"
)

// scanTarget allocates the scan destination for a registry kind. The mapping
// is a total switch: every kind in the registry has exactly one destination
// type, chosen from what clickhouse-go produces for the column's ClickHouse
// type.
func scanTarget(kind ColumnKind) interface{} {
	switch kind {
	case KindString:
		return new(string)
	case KindTime:
		return new(time.Time)
	case KindUInt64:
		return new(uint64)
	case KindInt64:
		return new(int64)
	case KindInt32:
		return new(int32)
	case KindUInt8:
		return new(uint8)
	case KindStringArray:
		return new([]string)
	default:
		return new(interface{})
	}
}

// extractValue dereferences a scan target back to its value. A target whose
// runtime type disagrees with the column's registered kind is schema drift
// and fails the request; it is never coerced.
func extractValue(col Column, ptr interface{}) (interface{}, error) {
	switch col.Kind {
	case KindString:
		if v, ok := ptr.(*string); ok {
			return *v, nil
		}
	case KindTime:
		if v, ok := ptr.(*time.Time); ok {
			return *v, nil
		}
	case KindUInt64:
		if v, ok := ptr.(*uint64); ok {
			return *v, nil
		}
	case KindInt64:
		if v, ok := ptr.(*int64); ok {
			return *v, nil
		}
	case KindInt32:
		if v, ok := ptr.(*int32); ok {
			return *v, nil
		}
	case KindUInt8:
		if v, ok := ptr.(*uint8); ok {
			return *v, nil
		}
	case KindStringArray:
		if v, ok := ptr.(*[]string); ok {
			return *v, nil
		}
	}
	return nil, &SchemaDriftError{Column: col.Name, Want: col.Kind.String()}
}

// projectedRow materializes one result row as a column-keyed map restricted
// to the requested projection. columns must be validated registry names.
func projectedRow(rows *sql.Rows, columns []string) (map[string]interface{}, error) {
	targets := make([]interface{}, len(columns))
	for i, name := range columns {
		targets[i] = scanTarget(columnsByName[name].Kind)
	}

	if err := rows.Scan(targets...); err != nil {
		return nil, err
	}

	row := make(map[string]interface{}, len(columns))
	for i, name := range columns {
		value, err := extractValue(columnsByName[name], targets[i])
		if err != nil {
			return nil, err
		}
		row[name] = value
	}
	return row, nil
}

// rowScanner abstracts sql.Rows and sql.Row so the full-record scan is shared
// between list queries and the single-row id lookup.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanLogRecord materializes one result row of the full column list, in
// registry order, into a LogRecord.
func scanLogRecord(row rowScanner) (model.LogRecord, error) {
	var rec model.LogRecord
	var databases, tables []string
	err := row.Scan(
		&rec.QueryID,
		&rec.Query,
		&rec.EventTime,
		&rec.EventDate,
		&rec.Type,
		&rec.QueryDurationMs,
		&rec.MemoryUsage,
		&rec.ReadRows,
		&rec.ReadBytes,
		&rec.WrittenRows,
		&rec.WrittenBytes,
		&rec.ResultRows,
		&rec.ResultBytes,
		&databases,
		&tables,
		&rec.ExceptionCode,
		&rec.Exception,
		&rec.User,
		&rec.ClientHostname,
		&rec.HTTPUserAgent,
		&rec.InitialUser,
		&rec.InitialQueryID,
		&rec.IsInitialQuery,
	)
	if err != nil {
		return model.LogRecord{}, err
	}
	rec.Databases = databases
	rec.Tables = tables
	return rec, nil
}
