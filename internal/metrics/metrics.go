package metrics

import (
    "sync"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // HTTPRetries counts transient upstream responses that were retried, by host
    HTTPRetries = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "upstream_retries_total", Help: "Retried upstream responses by host."},
        []string{"host"},
    )
    // GeocodeLookups counts geocode outcomes by tier (strict, fallback_nominatim,
    // fallback_photon, cache) and result (hit, miss)
    GeocodeLookups = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "geocode_lookups_total", Help: "Geocode lookups by tier and result."},
        []string{"tier", "result"},
    )
    // MatrixBuilds counts matrix builds by mode (bulk, degraded) and status
    MatrixBuilds = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "matrix_builds_total", Help: "Distance matrix builds by mode and status."},
        []string{"mode", "status"},
    )
    // SolveDuration tracks solver runtime in seconds per strategy
    SolveDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Route solver runtime per strategy.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10}},
        []string{"strategy"},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(HTTPRetries)
        Registry.MustRegister(GeocodeLookups)
        Registry.MustRegister(MatrixBuilds)
        Registry.MustRegister(SolveDuration)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
