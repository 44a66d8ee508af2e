package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "style_jobs_total",
		Help: "Processing jobs by final status.",
	}, []string{"status"})

	JobDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "style_job_duration_seconds",
		Help:    "Time from job start to completion or failure.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "style_http_requests_total",
		Help: "HTTP requests by route.",
	}, []string{"method", "path", "code"})

	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "style_sessions",
		Help: "Live sessions.",
	})

	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(JobsTotal, JobDuration, HttpRequests, Sessions,
		prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}

// ObserveJob count a finished job, duration only for jobs that ran to an end
func ObserveJob(status string, started time.Time) {
	JobsTotal.WithLabelValues(status).Inc()
	if !started.IsZero() {
		JobDuration.Observe(time.Since(started).Seconds())
	}
}

// Stat count requests by route template
func Stat() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HttpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler prometheus exposition for Registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
