package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskboard_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_auth_attempts_total",
		Help: "Count of register and login attempts by result",
	}, []string{"operation", "result"})

	taskOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskboard_task_operations_total",
		Help: "Count of task mutations by operation",
	}, []string{"operation"})

	tasksPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskboard_tasks_purged_total",
		Help: "Count of archived tasks removed by the retention sweeper",
	})

	taskFeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskboard_task_feed_subscribers",
		Help: "Number of open websocket task feed connections",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuth increments the auth attempt counter for an operation and result.
func ObserveAuth(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// ObserveTaskOperation increments the task mutation counter.
func ObserveTaskOperation(operation string) {
	taskOperations.WithLabelValues(operation).Inc()
}

// ObservePurged records archived tasks removed by the retention sweeper.
func ObservePurged(count int64) {
	tasksPurged.Add(float64(count))
}

// FeedSubscriberConnected increments the websocket feed gauge.
func FeedSubscriberConnected() {
	taskFeedSubscribers.Inc()
}

// FeedSubscriberDisconnected decrements the websocket feed gauge.
func FeedSubscriberDisconnected() {
	taskFeedSubscribers.Dec()
}
