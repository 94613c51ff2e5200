package models

import (
	"errors"
	"fmt"
	"time"
)

type ResourceMetric string

const (
	MetricCPU          ResourceMetric = "cpu"
	MetricMemory       ResourceMetric = "memory"
	MetricRequestRate  ResourceMetric = "request_rate"
	MetricResponseTime ResourceMetric = "response_time"
	MetricQueueLength  ResourceMetric = "queue_length"
	MetricErrorRate    ResourceMetric = "error_rate"
	MetricCustom       ResourceMetric = "custom"
)

// AllMetrics lists every supported metric, in a stable order.
func AllMetrics() []ResourceMetric {
	return []ResourceMetric{
		MetricCPU,
		MetricMemory,
		MetricRequestRate,
		MetricResponseTime,
		MetricQueueLength,
		MetricErrorRate,
		MetricCustom,
	}
}

func (m ResourceMetric) Valid() bool {
	switch m {
	case MetricCPU, MetricMemory, MetricRequestRate, MetricResponseTime,
		MetricQueueLength, MetricErrorRate, MetricCustom:
		return true
	}
	return false
}

// MetricSample is one observed value for a target's metric.
type MetricSample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricThreshold is one metric's trigger configuration on a target.
type MetricThreshold struct {
	Metric            ResourceMetric `json:"metric"`
	ScaleUpValue      float64        `json:"scale_up_value"`
	ScaleDownValue    float64        `json:"scale_down_value"`
	EvaluationPeriods int            `json:"evaluation_periods"`
	CooldownSeconds   int            `json:"cooldown_seconds"`
}

func (t MetricThreshold) Validate() error {
	if !t.Metric.Valid() {
		return fmt.Errorf("unknown metric %q", t.Metric)
	}
	if t.ScaleDownValue >= t.ScaleUpValue {
		return errors.New("scale_down_value must be less than scale_up_value")
	}
	if t.EvaluationPeriods < 1 {
		return errors.New("evaluation_periods must be at least 1")
	}
	if t.CooldownSeconds < 0 {
		return errors.New("cooldown_seconds must not be negative")
	}
	return nil
}

// DefaultThresholds are injected at registration when a target supplies none.
func DefaultThresholds() []MetricThreshold {
	return []MetricThreshold{
		{
			Metric:            MetricCPU,
			ScaleUpValue:      80.0,
			ScaleDownValue:    30.0,
			EvaluationPeriods: 3,
			CooldownSeconds:   300,
		},
		{
			Metric:            MetricMemory,
			ScaleUpValue:      85.0,
			ScaleDownValue:    40.0,
			EvaluationPeriods: 3,
			CooldownSeconds:   300,
		},
	}
}
