package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route pattern, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// TravelCacheLookups counts duration lookups by tier and result (hit, miss)
	TravelCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "travel_cache_lookups_total", Help: "Travel duration cache lookups by tier and result."},
		[]string{"tier", "result"},
	)
	// TravelProviderCalls counts provider calls by outcome (resolved, unresolved, skipped)
	TravelProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "travel_provider_calls_total", Help: "Travel provider calls by outcome."},
		[]string{"outcome"},
	)
	// TravelProviderLatency tracks provider latencies in milliseconds
	TravelProviderLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "travel_provider_latency_ms", Help: "Travel provider latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
	)
	// TravelDefaults counts legs rendered with the default duration
	TravelDefaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "travel_default_durations_total", Help: "Travel legs that fell back to the default duration, by kind."},
		[]string{"kind"},
	)
	// Placements counts placement outcomes (resolved, snapped, rejected)
	Placements = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "placements_total", Help: "Placement resolutions by outcome."},
		[]string{"outcome"},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(TravelCacheLookups)
		Registry.MustRegister(TravelProviderCalls)
		Registry.MustRegister(TravelProviderLatency)
		Registry.MustRegister(TravelDefaults)
		Registry.MustRegister(Placements)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
