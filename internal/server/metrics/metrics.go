// Package metrics collects Prometheus metrics for the TradeHub server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is what the transport and services record into.
type MetricsCollector interface {
	RecordRPC(method, code string, duration time.Duration)
	RecordRateLimited(method string)
	RecordProductWrite(op string)
	RecordUpload(size int)
	WatcherStarted()
	WatcherStopped()
}

type Collector struct {
	rpcTotal      *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	rateLimited   *prometheus.CounterVec
	productWrites *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	watchers      prometheus.Gauge
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rpcTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradehub_rpc_requests_total",
			Help: "Handled gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradehub_rpc_duration_seconds",
			Help:    "gRPC handler latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradehub_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"method"}),
		productWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradehub_product_writes_total",
			Help: "Successful product writes by operation.",
		}, []string{"op"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradehub_uploaded_bytes_total",
			Help: "Bytes of images accepted for storage.",
		}),
		watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradehub_active_watchers",
			Help: "Open live product subscriptions.",
		}),
	}

	reg.MustRegister(
		c.rpcTotal,
		c.rpcLatency,
		c.rateLimited,
		c.productWrites,
		c.uploadedBytes,
		c.watchers,
	)

	return c
}

func (c *Collector) RecordRPC(method, code string, duration time.Duration) {
	c.rpcTotal.WithLabelValues(method, code).Inc()
	c.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

func (c *Collector) RecordRateLimited(method string) {
	c.rateLimited.WithLabelValues(method).Inc()
}

func (c *Collector) RecordProductWrite(op string) {
	c.productWrites.WithLabelValues(op).Inc()
}

func (c *Collector) RecordUpload(size int) {
	c.uploadedBytes.Add(float64(size))
}

func (c *Collector) WatcherStarted() { c.watchers.Inc() }
func (c *Collector) WatcherStopped() { c.watchers.Dec() }

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRPC(string, string, time.Duration) {}
func (Nop) RecordRateLimited(string)                {}
func (Nop) RecordProductWrite(string)               {}
func (Nop) RecordUpload(int)                        {}
func (Nop) WatcherStarted()                         {}
func (Nop) WatcherStopped()                         {}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
