package monitoring

import (
	"strconv"
	"sync"
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

	ChallengeCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctf_challenge_completions_total",
			Help: "Challenges completed, by challenge id",
		},
		[]string{"challenge"},
	)

	PointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ctf_points_awarded_total",
			Help: "Sum of points awarded across all players",
		},
	)

	ExploitAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctf_exploit_attempts_total",
			Help: "Exploit attempts, by method and outcome",
		},
		[]string{"method", "success"},
	)

	HintsUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctf_hints_used_total",
			Help: "Hints revealed, by challenge id",
		},
		[]string{"challenge"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ChallengeCompletions)
		prometheus.MustRegister(PointsAwarded)
		prometheus.MustRegister(ExploitAttempts)
		prometheus.MustRegister(HintsUsed)
	})
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
