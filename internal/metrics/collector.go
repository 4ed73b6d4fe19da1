// Package metrics provides internal metrics collection for council runs.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records run, stage and model-call metrics. All record methods
// are safe on a nil *Collector, so callers never branch on its presence.
type Collector struct {
	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	stageDuration     *prometheus.HistogramVec
	modelCallsTotal   *prometheus.CounterVec
	messagesDelivered prometheus.Counter
	messagesDropped   prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector registering its metrics with reg
// (prometheus.DefaultRegisterer when nil).
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	return &Collector{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of council runs by terminal status",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Full council run duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Per-stage duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"stage"},
		),
		modelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of model calls by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		messagesDelivered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_delivered_total",
				Help:      "Collaboration messages delivered at round boundaries",
			},
		),
		messagesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_dropped_total",
				Help:      "Collaboration messages dropped for unresolvable recipients",
			},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

// RunCompleted records one finished run with its terminal status.
func (c *Collector) RunCompleted(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(status).Inc()
	c.runDuration.Observe(elapsed.Seconds())
}

// ObserveStage records one stage duration.
func (c *Collector) ObserveStage(stage string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// ModelCall records one model call outcome ("ok" or "failed").
func (c *Collector) ModelCall(model, outcome string) {
	if c == nil {
		return
	}
	c.modelCallsTotal.WithLabelValues(model, outcome).Inc()
}

// MessageDelivered records one delivered collaboration message.
func (c *Collector) MessageDelivered() {
	if c == nil {
		return
	}
	c.messagesDelivered.Inc()
}

// MessageDropped records one dropped collaboration message.
func (c *Collector) MessageDropped() {
	if c == nil {
		return
	}
	c.messagesDropped.Inc()
}
