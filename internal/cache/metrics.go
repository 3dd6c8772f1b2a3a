package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

var memorySizeMetric = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "quotaguard_memory_cache_size",
	Help: "The number of items held by the in-process cache.",
})

var memoryAccessMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "quotaguard_memory_cache_access_count",
	Help: "In-process cache access counts. Label \"type\" = hit|miss.",
}, []string{"type"})

// Collector exposes cache metrics for prometheus registration.
type Collector struct{}

var _ prometheus.Collector = Collector{}

// Describe implements prometheus.Collector.
func (Collector) Describe(ch chan<- *prometheus.Desc) {
	memorySizeMetric.Describe(ch)
	memoryAccessMetric.Describe(ch)
}

// Collect implements prometheus.Collector.
func (Collector) Collect(ch chan<- prometheus.Metric) {
	memorySizeMetric.Collect(ch)
	memoryAccessMetric.Collect(ch)
}
