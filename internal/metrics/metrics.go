// Package metrics exposes Prometheus metrics for dedup runs. A run is a
// batch job, so metrics are written to a node-exporter textfile at the end
// rather than scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

// Collector holds the run metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	PassRemovals     *prometheus.CounterVec
	PassSkipped      *prometheus.CounterVec
	PassDuration     *prometheus.HistogramVec
	Records          *prometheus.GaugeVec
	FilterRejections *prometheus.CounterVec
	Runs             *prometheus.CounterVec
}

// NewCollector registers run metrics against the provided registerer.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	removals, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courtsync_pass_removals_total",
		Help: "Records marked for removal, by pass.",
	}, []string{"pass"}), "courtsync_pass_removals_total")
	if err != nil {
		return nil, err
	}

	skipped, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courtsync_pass_skipped_total",
		Help: "Records without coordinates skipped, by pass.",
	}, []string{"pass"}), "courtsync_pass_skipped_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "courtsync_pass_duration_seconds",
		Help:    "Wall time of each dedup or filter pass.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"pass"}), "courtsync_pass_duration_seconds")
	if err != nil {
		return nil, err
	}

	records, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "courtsync_records",
		Help: "Record counts per source before and after the run.",
	}, []string{"source", "stage"}), "courtsync_records")
	if err != nil {
		return nil, err
	}

	rejections, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courtsync_filter_rejections_total",
		Help: "Records rejected by the category filter, by reason.",
	}, []string{"reason"}), "courtsync_filter_rejections_total")
	if err != nil {
		return nil, err
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courtsync_runs_total",
		Help: "Completed runs by outcome.",
	}, []string{"status"}), "courtsync_runs_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		PassRemovals:     removals,
		PassSkipped:      skipped,
		PassDuration:     duration,
		Records:          records,
		FilterRejections: rejections,
		Runs:             runs,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObservePass records one pass outcome.
func (c *Collector) ObservePass(pass string, removed, skipped int, d time.Duration) {
	if c == nil {
		return
	}
	c.PassRemovals.WithLabelValues(pass).Add(float64(removed))
	c.PassSkipped.WithLabelValues(pass).Add(float64(skipped))
	c.PassDuration.WithLabelValues(pass).Observe(d.Seconds())
}

// SetRecords sets the record gauge for a source at a stage ("in" or "out").
func (c *Collector) SetRecords(source, stage string, n int) {
	if c == nil {
		return
	}
	c.Records.WithLabelValues(source, stage).Set(float64(n))
}

// AddRejections counts filter rejections for one reason.
func (c *Collector) AddRejections(reason string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.FilterRejections.WithLabelValues(reason).Add(float64(n))
}

// IncRuns counts a finished run.
func (c *Collector) IncRuns(status string) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(status).Inc()
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return eris.Wrapf(prometheus.WriteToTextfile(path, c.gatherer), "metrics: write textfile %s", path)
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, eris.Errorf("metrics: collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, eris.Wrapf(err, "metrics: register %s", name)
	}
	return c, nil
}
