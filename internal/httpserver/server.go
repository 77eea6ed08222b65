package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glasshouse/glasshouse/internal/clickhouse"
	"github.com/glasshouse/glasshouse/internal/metrics"
	"github.com/glasshouse/glasshouse/internal/model"
)

// QueryStore is the narrow store contract required by the HTTP API.
type QueryStore interface {
	Logs(ctx context.Context, f model.Filter) ([]model.LogRecord, error)
	LogsProjected(ctx context.Context, f model.Filter, columns []string, limits model.LimitPolicy) ([]map[string]interface{}, error)
	AggregatedMetrics(ctx context.Context, f model.Filter) ([]model.MetricBucket, clickhouse.Bucket, error)
	Databases(ctx context.Context) ([]string, error)
	LogByID(ctx context.Context, queryID string) (*model.LogRecord, error)
	HealthCheck(ctx context.Context) error
}

// Server provides the HTTP API consumed by the dashboard frontend.
type Server struct {
	addr         string
	store        QueryStore
	logger       *slog.Logger
	metrics      *metrics.APIMetrics
	allowOrigins []string
	server       *http.Server
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewServer creates the API server. allowOrigins lists the dashboard origins
// permitted by CORS; empty means same-origin only.
func NewServer(addr string, store QueryStore, logger *slog.Logger, m *metrics.APIMetrics, allowOrigins []string) *Server {
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:         addr,
		store:        store,
		logger:       logger,
		metrics:      m,
		allowOrigins: allowOrigins,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// router assembles the gin engine with middleware and all routes. Split from
// Start so tests can exercise the full routing table without a listener.
func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogging(s.logger))
	if s.metrics != nil {
		r.Use(instrument(s.metrics))
	}

	if len(s.allowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.allowOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
		}))
	}

	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		logs := v1.Group("/logs")
		{
			logs.GET("", s.handleLogs)
			logs.GET("/metrics", s.handleAggregatedMetrics)
			logs.GET("/export", s.handleExportCSV)
			logs.GET("/:id", s.handleLogByID)
		}
		v1.GET("/databases", s.handleDatabases)
	}

	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.router(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
