// Package metrics provides Prometheus metrics for conversions and the HTTP surface.
// Conversion metrics:
//   - trialsites_conversions_total: Counter with analysis and status labels
//   - trialsites_conversion_duration_seconds: Histogram with analysis label
//   - trialsites_studies_read_total, trialsites_locations_parsed_total,
//     trialsites_malformed_locations_total: Counters fed by every conversion
//
// HTTP metrics mirror the request counters of the API server.
// All metrics are registered with the Prometheus default registry during package initialization.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trialsites_conversions_total",
			Help: "Total conversions by analysis and status",
		},
		[]string{"analysis", "status"},
	)

	ConversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trialsites_conversion_duration_seconds",
			Help:    "Time spent converting one export",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"analysis"},
	)

	StudiesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trialsites_studies_read_total",
			Help: "Study records read from exports",
		},
	)

	LocationsParsed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trialsites_locations_parsed_total",
			Help: "Location entries parsed from Locations cells",
		},
	)

	MalformedLocations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trialsites_malformed_locations_total",
			Help: "Location entries without a country separator",
		},
	)

	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "Size of uploaded request bodies",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KiB to 256MiB
		},
		[]string{"path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last cleanup)",
		},
	)
)

func init() {
	prometheus.MustRegister(ConversionsTotal)
	prometheus.MustRegister(ConversionDuration)
	prometheus.MustRegister(StudiesRead)
	prometheus.MustRegister(LocationsParsed)
	prometheus.MustRegister(MalformedLocations)
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestSize)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
}

// WriteTextfile dumps the default registry to path in the node exporter textfile format
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
