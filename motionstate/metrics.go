package motionstate

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "motionframes_transform_cache_hits_total",
		Help: "Total number of frame transformations answered from a motion state's cache.",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "motionframes_transform_cache_misses_total",
		Help: "Total number of frame transformations computed by walking the frame tree.",
	})
	transformFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "motionframes_transform_failures_total",
		Help: "Total number of frame transformations that failed.",
	})
)

// RegisterMetrics registers the transformation counters against reg, defaulting to the global
// Prometheus registry when nil. Registering twice with the same registry is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{cacheHits, cacheMisses, transformFailures} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return errors.Wrap(err, "failed to register motion state metrics")
		}
	}
	return nil
}
