package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_sync_runs_total",
			Help: "Total number of account sync runs by outcome",
		},
		[]string{"outcome"},
	)

	ExamsSynced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_sync_reports_total",
			Help: "Total number of exam reports merged into the catalog",
		},
	)

	ReportsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_sync_reports_skipped_total",
			Help: "Total number of exam reports skipped due to merge failures",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SyncRuns)
	prometheus.MustRegister(ExamsSynced)
	prometheus.MustRegister(ReportsSkipped)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
