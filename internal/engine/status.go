package engine

import (
	"fmt"
	"time"

	"github.com/openfleet/autoscaler/internal/cost"
	"github.com/openfleet/autoscaler/pkg/models"
)

const (
	statusActionWindow = time.Hour
	statusMetricWindow = 10 * time.Minute
)

// Status is an engine-wide summary over the trailing hour.
type Status struct {
	MonitoringActive bool           `json:"monitoring_active"`
	TargetCount      int            `json:"target_count"`
	TargetCounts     map[string]int `json:"target_counts"`

	RecentScaleUps   int     `json:"recent_scale_ups"`
	RecentScaleDowns int     `json:"recent_scale_downs"`
	SuccessRate      float64 `json:"success_rate"`

	CurrentHourlyCost    float64 `json:"current_hourly_cost"`
	EstimatedMonthlyCost float64 `json:"estimated_monthly_cost"`
	RecentCostImpact     float64 `json:"recent_cost_impact_per_hour"`
}

// TargetInfo is a per-target summary.
type TargetInfo struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	ResourceType string               `json:"resource_type"`
	CurrentCount int                  `json:"current_count"`
	MinCount     int                  `json:"min_count"`
	MaxCount     int                  `json:"max_count"`
	Policy       models.ScalingPolicy `json:"policy"`

	CooldownState            string     `json:"cooldown_state"`
	CooldownRemainingSeconds int        `json:"cooldown_remaining_seconds"`
	LastScaledAt             *time.Time `json:"last_scaled_at,omitempty"`

	RecentMetricAverages map[models.ResourceMetric]float64 `json:"recent_metric_averages"`
	HourlyCost           float64                           `json:"hourly_cost"`
	Thresholds           []models.MetricThreshold          `json:"thresholds"`
}

// GetStatus aggregates engine state and the last hour of ledger activity.
func (e *Engine) GetStatus() *Status {
	status := &Status{
		MonitoringActive: e.Running(),
		TargetCounts:     make(map[string]int),
		SuccessRate:      1.0,
	}

	for _, entry := range e.snapshot() {
		entry.mu.Lock()
		count := entry.target.CurrentCount
		resourceType := entry.target.ResourceType
		id := entry.target.ID
		entry.mu.Unlock()

		status.TargetCount++
		status.TargetCounts[id] = count
		status.CurrentHourlyCost += e.costs.HourlyCost(resourceType, count)
	}
	status.EstimatedMonthlyCost = status.CurrentHourlyCost * cost.HoursPerMonth

	actions := e.executor.Ledger().Since(time.Now().Add(-statusActionWindow))
	successes := 0
	for _, a := range actions {
		switch a.Direction {
		case models.DirectionUp:
			status.RecentScaleUps++
		case models.DirectionDown:
			status.RecentScaleDowns++
		}
		if a.Success {
			successes++
			status.RecentCostImpact += a.CostImpactPerHour
		}
	}
	if len(actions) > 0 {
		status.SuccessRate = float64(successes) / float64(len(actions))
	}

	return status
}

// GetTargetInfo reports one target's configuration, cooldown state and
// trailing ten-minute metric averages.
func (e *Engine) GetTargetInfo(targetID string) (*TargetInfo, error) {
	entry, ok := e.lookup(targetID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTargetNotFound, targetID)
	}

	entry.mu.Lock()
	target := entry.target
	info := &TargetInfo{
		ID:           target.ID,
		Name:         target.Name,
		ResourceType: target.ResourceType,
		CurrentCount: target.CurrentCount,
		MinCount:     target.MinCount,
		MaxCount:     target.MaxCount,
		Policy:       target.Policy,
		LastScaledAt: target.LastScaledAt,
		HourlyCost:   e.costs.HourlyCost(target.ResourceType, target.CurrentCount),
		Thresholds:   append([]models.MetricThreshold(nil), target.Thresholds...),
	}

	remaining := e.decisions.CooldownRemaining(target)
	entry.mu.Unlock()

	switch {
	case remaining > 0:
		info.CooldownState = "cooldown"
		info.CooldownRemainingSeconds = int(remaining.Seconds())
	default:
		info.CooldownState = "eligible"
	}

	info.RecentMetricAverages = make(map[models.ResourceMetric]float64)
	for _, metric := range models.AllMetrics() {
		samples := e.history.Recent(targetID, metric, statusMetricWindow)
		if len(samples) == 0 {
			continue
		}
		sum := 0.0
		for _, s := range samples {
			sum += s.Value
		}
		info.RecentMetricAverages[metric] = sum / float64(len(samples))
	}

	return info, nil
}

// RecentActions returns up to limit most recent ledger entries for one
// target, newest first.
func (e *Engine) RecentActions(targetID string, limit int) ([]*models.ScalingAction, error) {
	if _, ok := e.lookup(targetID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrTargetNotFound, targetID)
	}
	return e.executor.Ledger().ForTarget(targetID, limit), nil
}

// Targets returns a snapshot of all registered targets. Entries are deep
// copies so callers can marshal them while the loops keep scaling.
func (e *Engine) Targets() []*models.ScalingTarget {
	entries := e.snapshot()
	out := make([]*models.ScalingTarget, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		out = append(out, entry.target.Clone())
		entry.mu.Unlock()
	}
	return out
}
