package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of post store operations executed",
		},
		[]string{"operation", "success"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of post store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_events_published_total",
			Help: "Total number of post events published to the queue",
		},
		[]string{"type", "success"},
	)
)

// Provider is the narrow surface the service layers record through.
type Provider interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordStoreOperation(operation string, success bool, duration time.Duration)
	IncrementEventsPublished(eventType string, success bool)
}

type PrometheusProvider struct{}

func NewPrometheusProvider() *PrometheusProvider {
	return &PrometheusProvider{}
}

func (p *PrometheusProvider) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusProvider) RecordStoreOperation(operation string, success bool, duration time.Duration) {
	StoreOperationsTotal.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *PrometheusProvider) IncrementEventsPublished(eventType string, success bool) {
	EventsPublishedTotal.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
}
