// Package observability wires the simulator's repair-pipeline counters and
// histograms into Prometheus, following the registration idiom used
// throughout this codebase: build the collector, register it tolerating a
// prior registration of the same collector, and hand back thin setter
// methods so call sites never touch the prometheus package directly.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// RepairCollector exposes Prometheus metrics for the self-healing repair
// pipeline: one failure instance at a time, end to end.
type RepairCollector struct {
	gatherer prometheus.Gatherer

	PatchDuration    prometheus.Histogram
	OptimizeDuration prometheus.Histogram
	FailuresTotal    *prometheus.CounterVec
	LinkUtilization  prometheus.Gauge
	OffsetsGCTotal   prometheus.Counter
}

// NewRepairCollector registers the repair metrics against reg. A nil
// registerer falls back to the default Prometheus registry.
func NewRepairCollector(reg prometheus.Registerer) (*RepairCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	patchHist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shp_patch_duration_seconds",
		Help:    "Wall-clock duration reported by the external Patch solver invocation.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	patchHist, err := registerHistogram(reg, patchHist, "shp_patch_duration_seconds")
	if err != nil {
		return nil, err
	}

	optimizeHist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shp_optimize_duration_seconds",
		Help:    "Wall-clock duration reported by the external Optimize solver invocation.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	optimizeHist, err = registerHistogram(reg, optimizeHist, "shp_optimize_duration_seconds")
	if err != nil {
		return nil, err
	}

	failuresVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shp_failures_total",
		Help: "Repair pipeline outcomes, partitioned by terminal category.",
	}, []string{"category"})
	if err := registerVec(reg, failuresVec, "shp_failures_total"); err != nil {
		return nil, err
	}

	utilGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shp_link_utilization_ratio",
		Help: "Most recently observed utilization ratio of the broken link.",
	})
	utilGauge, err = registerGauge(reg, utilGauge, "shp_link_utilization_ratio")
	if err != nil {
		return nil, err
	}

	gcCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shp_offsets_garbage_collected_total",
		Help: "Cumulative count of frame offsets removed because no path referenced them.",
	})
	gcCounter, err = registerCounter(reg, gcCounter, "shp_offsets_garbage_collected_total")
	if err != nil {
		return nil, err
	}

	return &RepairCollector{
		gatherer:         gatherer,
		PatchDuration:    patchHist,
		OptimizeDuration: optimizeHist,
		FailuresTotal:    failuresVec,
		LinkUtilization:  utilGauge,
		OffsetsGCTotal:   gcCounter,
	}, nil
}

// Gatherer returns the Prometheus gatherer backing this collector.
func (c *RepairCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObservePatch records a patch solver duration in seconds.
func (c *RepairCollector) ObservePatch(seconds float64) {
	if c == nil || c.PatchDuration == nil {
		return
	}
	c.PatchDuration.Observe(seconds)
}

// ObserveOptimize records an optimize solver duration in seconds.
func (c *RepairCollector) ObserveOptimize(seconds float64) {
	if c == nil || c.OptimizeDuration == nil {
		return
	}
	c.OptimizeDuration.Observe(seconds)
}

// IncFailure increments the outcome counter for the given terminal category
// (e.g. "healed", "no_path", "no_schedule", "no_transmission").
func (c *RepairCollector) IncFailure(category string) {
	if c == nil || c.FailuresTotal == nil {
		return
	}
	c.FailuresTotal.WithLabelValues(category).Inc()
}

// SetLinkUtilization records the most recent broken-link utilization ratio.
func (c *RepairCollector) SetLinkUtilization(ratio float64) {
	if c == nil || c.LinkUtilization == nil {
		return
	}
	c.LinkUtilization.Set(ratio)
}

// IncOffsetsGC adds n to the count of garbage-collected offsets.
func (c *RepairCollector) IncOffsetsGC(n int) {
	if c == nil || c.OffsetsGCTotal == nil || n <= 0 {
		return
	}
	c.OffsetsGCTotal.Add(float64(n))
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) error {
	if err := reg.Register(vec); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}
