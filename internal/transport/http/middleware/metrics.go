package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "users_api",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests",
	}, []string{"path", "method", "status"})
	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "users_api",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path", "method"})
	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "users_api",
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served",
	})
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		c.Next()
		// 未匹配路由统一归到一个标签，避免基数爆炸
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpReqTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
