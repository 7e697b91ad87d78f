package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons recorded by PipelineCollector.Dropped.
const (
	DropInferred    = "inferred_location"
	DropUnmatched   = "no_operator"
	DropDefunct     = "defunct_operator"
	DropOutOfCircle = "unlisted_circle"
	DropTrimmed     = "quantile_trim"
)

// PipelineCollector bundles Prometheus metrics for one pipeline run. A nil
// collector records nothing.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	Rows          *prometheus.GaugeVec
	Dropped       *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	CircleRows    *prometheus.GaugeVec
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	rows, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "celltowers_rows",
		Help: "Rows present after each pipeline stage.",
	}, []string{"stage"}), "celltowers_rows")
	if err != nil {
		return nil, err
	}

	dropped, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "celltowers_rows_dropped_total",
		Help: "Rows removed by the cleaner, labeled by reason.",
	}, []string{"reason"}), "celltowers_rows_dropped_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "celltowers_stage_duration_seconds",
		Help:    "Pipeline stage latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"stage"}), "celltowers_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	circles, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "celltowers_circle_rows",
		Help: "Rows retained per telecom circle after trimming.",
	}, []string{"circle"}), "celltowers_circle_rows")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:      gatherer,
		Rows:          rows,
		Dropped:       dropped,
		StageDuration: durations,
		CircleRows:    circles,
	}, nil
}

// SetRows records the row count after stage.
func (c *PipelineCollector) SetRows(stage string, n int) {
	if c == nil {
		return
	}
	c.Rows.WithLabelValues(stage).Set(float64(n))
}

// AddDropped counts n rows removed for reason.
func (c *PipelineCollector) AddDropped(reason string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Dropped.WithLabelValues(reason).Add(float64(n))
}

// ObserveStage records how long stage took.
func (c *PipelineCollector) ObserveStage(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetCircleRows records the retained size of one circle.
func (c *PipelineCollector) SetCircleRows(circle string, n int) {
	if c == nil {
		return
	}
	c.CircleRows.WithLabelValues(circle).Set(float64(n))
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format, for pickup by a node_exporter textfile collector.
func (c *PipelineCollector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
