package httpserver

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glasshouse/glasshouse/internal/clickhouse"
	"github.com/glasshouse/glasshouse/internal/model"
)

// handleExportCSV serves GET /api/v1/logs/export: the filtered log as a CSV
// download. The columns parameter is mandatory; the export limit policy
// allows much larger pulls than the JSON listing.
func (s *Server) handleExportCSV(c *gin.Context) {
	var f model.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_parameters", Message: err.Error()})
		return
	}

	if f.Columns == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing_columns", Message: "columns parameter is required for CSV export"})
		return
	}

	columns, err := clickhouse.ParseColumns(f.Columns)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_columns", Message: err.Error()})
		return
	}

	rows, err := s.store.LogsProjected(c.Request.Context(), f, columns, model.ExportLimits)
	if err != nil {
		s.storeFailure(c, "retrieve query logs for export", err)
		return
	}

	filename := fmt.Sprintf("query_logs_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write(columns); err != nil {
		return
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = formatCSVValue(row[col])
		}
		if err := writer.Write(record); err != nil {
			return
		}
	}
}

// formatCSVValue renders one cell. Arrays join with ";" and timestamps are
// RFC3339 so exports survive spreadsheet round-trips.
func formatCSVValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case []string:
		return strings.Join(val, ";")
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
