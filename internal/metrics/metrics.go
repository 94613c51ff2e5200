package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openfleet/autoscaler/pkg/models"
)

// Collector holds the engine's Prometheus instruments on a private
// registry so independent engine instances can be tested in isolation.
type Collector struct {
	registry *prometheus.Registry

	decisionsTotal *prometheus.CounterVec
	actionsTotal   *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	targetCount    prometheus.Gauge
	currentCount   *prometheus.GaugeVec
	hourlyCost     *prometheus.GaugeVec
	loopDuration   *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoscaler_decisions_total",
				Help: "Scaling decisions by target, direction, and trigger",
			},
			[]string{"target_id", "direction", "trigger"},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoscaler_actions_total",
				Help: "Executed scaling actions by target and outcome",
			},
			[]string{"target_id", "direction", "outcome"},
		),
		fetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autoscaler_metric_fetch_errors_total",
				Help: "Metric fetch failures by target",
			},
			[]string{"target_id"},
		),
		targetCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "autoscaler_targets",
				Help: "Number of registered scaling targets",
			},
		),
		currentCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autoscaler_target_current_count",
				Help: "Current unit count per target",
			},
			[]string{"target_id"},
		),
		hourlyCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "autoscaler_target_hourly_cost",
				Help: "Projected hourly spend per target",
			},
			[]string{"target_id"},
		),
		loopDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autoscaler_loop_duration_seconds",
				Help:    "Duration of one control-loop tick",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"loop"},
		),
	}

	c.registry.MustRegister(
		c.decisionsTotal,
		c.actionsTotal,
		c.fetchErrors,
		c.targetCount,
		c.currentCount,
		c.hourlyCost,
		c.loopDuration,
	)
	return c
}

func (c *Collector) ObserveDecision(d *models.ScalingDecision) {
	c.decisionsTotal.WithLabelValues(d.TargetID, string(d.Direction), string(d.Trigger)).Inc()
}

func (c *Collector) ObserveAction(a *models.ScalingAction) {
	outcome := "success"
	if !a.Success {
		outcome = "failure"
	}
	c.actionsTotal.WithLabelValues(a.TargetID, string(a.Direction), outcome).Inc()
}

func (c *Collector) ObserveFetchError(targetID string) {
	c.fetchErrors.WithLabelValues(targetID).Inc()
}

func (c *Collector) SetTargetCount(n int) {
	c.targetCount.Set(float64(n))
}

func (c *Collector) SetCurrentCount(targetID string, count int) {
	c.currentCount.WithLabelValues(targetID).Set(float64(count))
}

func (c *Collector) SetHourlyCost(targetID string, cost float64) {
	c.hourlyCost.WithLabelValues(targetID).Set(cost)
}

func (c *Collector) ObserveLoopDuration(loop string, seconds float64) {
	c.loopDuration.WithLabelValues(loop).Observe(seconds)
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
