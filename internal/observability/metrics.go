package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/quotaguard/quotaguard/internal/cache"
)

// NewRegistry builds the prometheus registry exposed at /metrics, with the
// standard process/go collectors plus the cache collector registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		cache.Collector{},
		QuotaDecisions,
	)
	return reg
}

// QuotaDecisions counts capacity-check outcomes. Label "outcome" =
// allow|reject|error.
var QuotaDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "quotaguard_quota_decisions_total",
	Help: "Capacity check outcomes.",
}, []string{"outcome"})
