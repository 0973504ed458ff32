package plinkbed

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

var (
	cacheHits      = metrics.GetOrCreateCounter(`plinkbed_variant_cache_requests_total{result="hit"}`)
	cacheMisses    = metrics.GetOrCreateCounter(`plinkbed_variant_cache_requests_total{result="miss"}`)
	cacheEvictions = metrics.GetOrCreateCounter(`plinkbed_variant_cache_evictions_total`)
	cacheRebuilds  = metrics.GetOrCreateCounter(`plinkbed_variant_cache_rebuilds_total`)

	variantLoads    = metrics.GetOrCreateCounter(`plinkbed_variant_loads_total`)
	variantLoadTime = metrics.GetOrCreateSummary(`plinkbed_variant_load_duration_seconds`)
)

// WriteMetrics writes the process-wide cache and load counters in Prometheus
// text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
