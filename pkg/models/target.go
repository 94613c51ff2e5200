package models

import (
	"errors"
	"fmt"
	"time"
)

type ScalingPolicy string

const (
	PolicyReactive   ScalingPolicy = "reactive"
	PolicyPredictive ScalingPolicy = "predictive"
	PolicyScheduled  ScalingPolicy = "scheduled"
	PolicyHybrid     ScalingPolicy = "hybrid"
)

func (p ScalingPolicy) Valid() bool {
	switch p {
	case PolicyReactive, PolicyPredictive, PolicyScheduled, PolicyHybrid:
		return true
	}
	return false
}

// ScalingTarget is a named, independently scaled resource group.
// CurrentCount and LastScaledAt are mutated only by the executor.
type ScalingTarget struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	ResourceType    string            `json:"resource_type"`
	CurrentCount    int               `json:"current_count"`
	MinCount        int               `json:"min_count"`
	MaxCount        int               `json:"max_count"`
	Policy          ScalingPolicy     `json:"policy"`
	CostPerUnitHour float64           `json:"cost_per_unit_hour"`
	Thresholds      []MetricThreshold `json:"thresholds"`
	LastScaledAt    *time.Time        `json:"last_scaled_at,omitempty"`
}

func (t *ScalingTarget) Validate() error {
	if t.ID == "" {
		return errors.New("target id is required")
	}
	if t.ResourceType == "" {
		return errors.New("resource_type is required")
	}
	if t.MinCount < 1 {
		return errors.New("min_count must be at least 1")
	}
	if t.MinCount >= t.MaxCount {
		return errors.New("min_count must be less than max_count")
	}
	if t.CurrentCount < t.MinCount || t.CurrentCount > t.MaxCount {
		return fmt.Errorf("current_count %d outside bounds [%d, %d]",
			t.CurrentCount, t.MinCount, t.MaxCount)
	}
	if !t.Policy.Valid() {
		return fmt.Errorf("unknown policy %q", t.Policy)
	}
	if t.CostPerUnitHour < 0 {
		return errors.New("cost_per_unit_hour must not be negative")
	}
	for i, th := range t.Thresholds {
		if err := th.Validate(); err != nil {
			return fmt.Errorf("threshold %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand to readers while the executor
// keeps mutating the original.
func (t *ScalingTarget) Clone() *ScalingTarget {
	clone := *t
	clone.Thresholds = append([]MetricThreshold(nil), t.Thresholds...)
	if t.LastScaledAt != nil {
		at := *t.LastScaledAt
		clone.LastScaledAt = &at
	}
	return &clone
}

func (t *ScalingTarget) CanScaleUp() bool {
	return t.CurrentCount < t.MaxCount
}

func (t *ScalingTarget) CanScaleDown() bool {
	return t.CurrentCount > t.MinCount
}

// UsesPrediction reports whether the predictive loop should act on the target.
func (t *ScalingTarget) UsesPrediction() bool {
	return t.Policy == PolicyPredictive || t.Policy == PolicyHybrid
}

// ThresholdFor returns the first threshold configured for the given metric.
func (t *ScalingTarget) ThresholdFor(metric ResourceMetric) (MetricThreshold, bool) {
	for _, th := range t.Thresholds {
		if th.Metric == metric {
			return th, true
		}
	}
	return MetricThreshold{}, false
}
