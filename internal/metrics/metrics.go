package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	uploads             *prometheus.CounterVec
	downloads           *prometheus.CounterVec
	orphanRecords       prometheus.Counter
)

// InitMetrics registers collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	once.Do(func() {
		httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "filestore_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"})

		httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filestore_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

		uploads = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "filestore_uploads_total",
			Help: "Upload attempts by result.",
		}, []string{"result"})

		downloads = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "filestore_downloads_total",
			Help: "Download attempts by result.",
		}, []string{"result"})

		orphanRecords = promauto.NewCounter(prometheus.CounterOpts{
			Name: "filestore_orphan_records_total",
			Help: "File records left without a backing object after a failed storage write.",
		})
	})
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	InitMetrics()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	InitMetrics()
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// ObserveUpload counts an upload outcome.
func ObserveUpload(result string) {
	InitMetrics()
	uploads.WithLabelValues(result).Inc()
}

// ObserveDownload counts a download outcome.
func ObserveDownload(result string) {
	InitMetrics()
	downloads.WithLabelValues(result).Inc()
}

// ObserveOrphanRecord counts a metadata row left without its object.
func ObserveOrphanRecord() {
	InitMetrics()
	orphanRecords.Inc()
}
