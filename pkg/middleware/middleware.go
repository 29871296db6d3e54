package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/metrics"
)

// Header names recognized on inbound requests.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

// Setup installs the common middleware chain on a gin engine: panic
// recovery, CORS, request/correlation IDs, request logging and metrics.
func Setup(router *gin.Engine, logger *slog.Logger, m *metrics.Metrics) {
	router.Use(gin.Recovery())
	router.Use(cors())
	router.Use(RequestID())
	router.Use(CorrelationID())
	router.Use(requestLogger(logger))
	if m != nil {
		router.Use(requestMetrics(m))
	}
}

// RequestID assigns a unique ID to every request, honoring one supplied
// by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), requestID))
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// CorrelationID propagates the caller's correlation ID, minting one when
// absent so downstream events always carry it.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Request = c.Request.WithContext(logging.ContextWithCorrelationID(c.Request.Context(), correlationID))
		c.Header(HeaderCorrelationID, correlationID)
		c.Next()
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Correlation-ID, X-WMS-Tenant-ID, X-WMS-Warehouse-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Health probes are too chatty to log.
		if c.FullPath() == "/health" || c.FullPath() == "/ready" {
			return
		}

		logging.WithContext(c.Request.Context(), logger).Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// RegisterHealthEndpoints wires liveness and readiness probes. The ready
// function should verify backing stores.
func RegisterHealthEndpoints(router *gin.Engine, ready func() error) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if err := ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

// RegisterMetricsEndpoint exposes the Prometheus scrape endpoint.
func RegisterMetricsEndpoint(router *gin.Engine, m *metrics.Metrics) {
	handler := promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
	router.GET("/metrics", gin.WrapH(handler))
}
