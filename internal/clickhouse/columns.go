package clickhouse

import "strings"

// ColumnKind tags a registry column with its scalar shape. Row decoding is a
// total switch over this enumeration; there is no runtime type sniffing.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindTime
	KindUInt64
	KindInt64
	KindInt32
	KindUInt8
	KindStringArray
)

// String returns the kind name used in schema-drift error messages.
func (k ColumnKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindTime:
		return "timestamp"
	case KindUInt64:
		return "uint64"
	case KindInt64:
		return "int64"
	case KindInt32:
		return "int32"
	case KindUInt8:
		return "uint8"
	case KindStringArray:
		return "[]string"
	default:
		return "unknown"
	}
}

// Column is one entry of the retrievable-column registry.
type Column struct {
	Name string
	Kind ColumnKind

	// Sortable marks columns eligible for ORDER BY. Free-text and array
	// columns are excluded: sorting on them is meaningless for operators and
	// expensive for the store.
	Sortable bool
}

// columnRegistry is the single source of truth for every column this service
// will ever interpolate into SQL text. Declaration order is the presentation
// order and the SELECT order of the full-record query. The table is built
// once and never mutated.
var columnRegistry = []Column{
	{Name: "query_id", Kind: KindString, Sortable: true},
	{Name: "query", Kind: KindString, Sortable: false},
	{Name: "event_time", Kind: KindTime, Sortable: true},
	{Name: "event_date", Kind: KindTime, Sortable: true},
	{Name: "type", Kind: KindString, Sortable: true},
	{Name: "query_duration_ms", Kind: KindUInt64, Sortable: true},
	{Name: "memory_usage", Kind: KindInt64, Sortable: true},
	{Name: "read_rows", Kind: KindUInt64, Sortable: true},
	{Name: "read_bytes", Kind: KindUInt64, Sortable: true},
	{Name: "written_rows", Kind: KindUInt64, Sortable: true},
	{Name: "written_bytes", Kind: KindUInt64, Sortable: true},
	{Name: "result_rows", Kind: KindUInt64, Sortable: true},
	{Name: "result_bytes", Kind: KindUInt64, Sortable: true},
	{Name: "databases", Kind: KindStringArray, Sortable: false},
	{Name: "tables", Kind: KindStringArray, Sortable: false},
	{Name: "exception_code", Kind: KindInt32, Sortable: true},
	{Name: "exception", Kind: KindString, Sortable: false},
	{Name: "user", Kind: KindString, Sortable: true},
	{Name: "client_hostname", Kind: KindString, Sortable: true},
	{Name: "http_user_agent", Kind: KindString, Sortable: true},
	{Name: "initial_user", Kind: KindString, Sortable: true},
	{Name: "initial_query_id", Kind: KindString, Sortable: true},
	{Name: "is_initial_query", Kind: KindUInt8, Sortable: true},
}

var (
	columnsByName = func() map[string]Column {
		m := make(map[string]Column, len(columnRegistry))
		for _, c := range columnRegistry {
			m[c.Name] = c
		}
		return m
	}()

	allColumnNames = func() []string {
		names := make([]string, len(columnRegistry))
		for i, c := range columnRegistry {
			names[i] = c.Name
		}
		return names
	}()
)

// AllColumns returns every retrievable column name in registry order. The
// caller gets a copy; the registry itself is immutable.
func AllColumns() []string {
	names := make([]string, len(allColumnNames))
	copy(names, allColumnNames)
	return names
}

// IsColumn reports whether name is in the registry.
func IsColumn(name string) bool {
	_, ok := columnsByName[name]
	return ok
}

// IsSortColumn reports whether name is a registry column eligible for
// ORDER BY.
func IsSortColumn(name string) bool {
	c, ok := columnsByName[name]
	return ok && c.Sortable
}

// ParseColumns validates a comma-separated projection list against the
// registry. Empty input means the full registry. Any name outside the
// registry fails the whole request with a ValidationError naming the column;
// unknown names are never silently dropped.
func ParseColumns(param string) ([]string, error) {
	if param == "" {
		return AllColumns(), nil
	}

	var validated []string
	for _, col := range strings.Split(param, ",") {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if !IsColumn(col) {
			return nil, validationErrorf("invalid column: %s", col)
		}
		validated = append(validated, col)
	}

	if len(validated) == 0 {
		return nil, validationErrorf("at least one valid column is required")
	}
	return validated, nil
}
