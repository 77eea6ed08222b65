package httpserver

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/glasshouse/glasshouse/internal/model"
)

func TestHandleExportCSV(t *testing.T) {
	when := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	store := &fakeStore{projected: []map[string]interface{}{
		{"query_id": "q1", "event_time": when, "databases": []string{"analytics", "staging"}, "read_rows": uint64(42)},
		{"query_id": "q2", "event_time": when, "databases": []string{}, "read_rows": uint64(0)},
	}}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs/export?columns=query_id,event_time,databases,read_rows")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", got)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.HasPrefix(got, "attachment; filename=query_logs_") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if store.lastLimits != model.ExportLimits {
		t.Errorf("limits = %+v, want export policy", store.lastLimits)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	header := records[0]
	if strings.Join(header, ",") != "query_id,event_time,databases,read_rows" {
		t.Errorf("header = %v", header)
	}
	if records[1][1] != "2024-05-01T09:30:00Z" {
		t.Errorf("event_time cell = %q, want RFC3339", records[1][1])
	}
	if records[1][2] != "analytics;staging" {
		t.Errorf("databases cell = %q, want semicolon join", records[1][2])
	}
	if records[1][3] != "42" {
		t.Errorf("read_rows cell = %q, want 42", records[1][3])
	}
}

func TestHandleExportCSVRequiresColumns(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs/export")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "missing_columns") {
		t.Errorf("body = %s, want missing_columns", w.Body.String())
	}
	if store.calls != 0 {
		t.Errorf("store called %d times, want 0", store.calls)
	}
}

func TestHandleExportCSVRejectsUnknownColumn(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	w := doRequest(t, srv, "/api/v1/logs/export?columns=query_id,nope")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_columns") {
		t.Errorf("body = %s, want invalid_columns", w.Body.String())
	}
}

func TestFormatCSVValue(t *testing.T) {
	when := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "SELECT 1", "SELECT 1"},
		{"time", when, "2024-05-01T09:30:00Z"},
		{"array", []string{"a", "b", "c"}, "a;b;c"},
		{"empty array", []string{}, ""},
		{"uint8", uint8(1), "1"},
		{"int32", int32(-241), "-241"},
		{"int64", int64(1073741824), "1073741824"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"float", 12.5, "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatCSVValue(tt.in); got != tt.want {
				t.Errorf("formatCSVValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
