package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionSend    = "send"
	DirectionReceive = "receive"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treexfer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "treexfer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	transfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treexfer",
			Subsystem: "transfer",
			Name:      "total",
			Help:      "Transfers by direction, top-level kind and outcome.",
		},
		[]string{"direction", "kind", "success"},
	)
	transferBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treexfer",
			Subsystem: "transfer",
			Name:      "wire_bytes_total",
			Help:      "Bytes moved on the wire, envelope included.",
		},
		[]string{"direction"},
	)
	transferFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treexfer",
			Subsystem: "transfer",
			Name:      "files_total",
			Help:      "Files fully sent or received.",
		},
		[]string{"direction"},
	)
	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "treexfer",
			Subsystem: "transfer",
			Name:      "duration_seconds",
			Help:      "Transfer duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"direction", "kind", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, transfers, transferBytes, transferFiles, transferDuration)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordTransfer counts one finished or failed transfer.
func RecordTransfer(direction, kind string, files int, bytes int64, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	transfers.WithLabelValues(direction, kind, successLabel).Inc()
	transferDuration.WithLabelValues(direction, kind, successLabel).Observe(duration.Seconds())
	transferBytes.WithLabelValues(direction).Add(float64(bytes))
	transferFiles.WithLabelValues(direction).Add(float64(files))
}
