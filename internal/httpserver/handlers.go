package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glasshouse/glasshouse/internal/clickhouse"
	"github.com/glasshouse/glasshouse/internal/model"
)

// errorResponse is the machine-readable envelope every failure path returns.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type logsResponse struct {
	Data       []model.LogRecord `json:"data"`
	Pagination model.Pagination  `json:"pagination"`
}

type projectedLogsResponse struct {
	Data       []map[string]interface{} `json:"data"`
	Columns    []string                 `json:"columns"`
	Pagination model.Pagination         `json:"pagination"`
}

type metricsResponse struct {
	Data        []model.MetricBucket `json:"data"`
	BucketSize  string               `json:"bucket_size"`
	BucketLabel string               `json:"bucket_label"`
}

// handleLogs serves GET /api/v1/logs. With a columns parameter the response
// carries column-keyed rows plus the column list; otherwise full records.
func (s *Server) handleLogs(c *gin.Context) {
	var f model.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_parameters", Message: err.Error()})
		return
	}

	page := model.Pagination{
		Limit:  model.ListLimits.Clamp(f.Limit),
		Offset: f.Offset,
	}

	if f.Columns != "" {
		columns, err := clickhouse.ParseColumns(f.Columns)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_columns", Message: err.Error()})
			return
		}

		rows, err := s.store.LogsProjected(c.Request.Context(), f, columns, model.ListLimits)
		if err != nil {
			s.storeFailure(c, "retrieve query logs", err)
			return
		}

		page.Count = len(rows)
		c.JSON(http.StatusOK, projectedLogsResponse{Data: rows, Columns: columns, Pagination: page})
		return
	}

	records, err := s.store.Logs(c.Request.Context(), f)
	if err != nil {
		s.storeFailure(c, "retrieve query logs", err)
		return
	}
	if records == nil {
		records = []model.LogRecord{}
	}

	page.Count = len(records)
	c.JSON(http.StatusOK, logsResponse{Data: records, Pagination: page})
}

// handleAggregatedMetrics serves GET /api/v1/logs/metrics: time-bucketed
// aggregates for charting, bucket granularity chosen from the filter's time
// range.
func (s *Server) handleAggregatedMetrics(c *gin.Context) {
	var f model.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_parameters", Message: err.Error()})
		return
	}

	buckets, bucket, err := s.store.AggregatedMetrics(c.Request.Context(), f)
	if err != nil {
		s.storeFailure(c, "retrieve aggregated metrics", err)
		return
	}
	if buckets == nil {
		buckets = []model.MetricBucket{}
	}

	c.JSON(http.StatusOK, metricsResponse{
		Data:        buckets,
		BucketSize:  bucket.Label(),
		BucketLabel: bucket.Interval(),
	})
}

// handleLogByID serves GET /api/v1/logs/:id.
func (s *Server) handleLogByID(c *gin.Context) {
	queryID := c.Param("id")
	if queryID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing_parameter", Message: "query_id is required"})
		return
	}

	rec, err := s.store.LogByID(c.Request.Context(), queryID)
	if err != nil {
		if errors.Is(err, clickhouse.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: "Query log not found"})
			return
		}
		s.storeFailure(c, "retrieve query log", err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// handleDatabases serves GET /api/v1/databases.
func (s *Server) handleDatabases(c *gin.Context) {
	databases, err := s.store.Databases(c.Request.Context())
	if err != nil {
		s.storeFailure(c, "retrieve databases", err)
		return
	}
	if databases == nil {
		databases = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"databases": databases})
}

// handleHealth serves GET /health: liveness only, no dependency checks.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReady serves GET /ready: readiness including store connectivity.
func (s *Server) handleReady(c *gin.Context) {
	if err := s.store.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"error":   "database_unavailable",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": gin.H{"database": "ok"},
	})
}

// storeFailure reports a failed store call. The client gets a generic
// message; the operation name and error go to the log, keyed by request id.
func (s *Server) storeFailure(c *gin.Context, op string, err error) {
	s.logger.Error("store operation failed",
		"op", op,
		"error", err,
		"request_id", c.GetString(requestIDKey),
	)
	if s.metrics != nil {
		s.metrics.StoreErrors.Inc()
	}
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "database_error", Message: "Failed to " + op})
}
