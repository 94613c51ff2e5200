package models

import "time"

// ScalingAction is the immutable record of one executed decision.
// Actions are appended to the in-memory ledger (and optionally archived
// to Postgres) whether or not the apply succeeded.
type ScalingAction struct {
	ID                string           `json:"id"`
	TargetID          string           `json:"target_id"`
	Timestamp         time.Time        `json:"timestamp"`
	Direction         ScalingDirection `json:"direction"`
	Trigger           ScalingTrigger   `json:"trigger"`
	ResourceType      string           `json:"resource_type"`
	FromCount         int              `json:"from_count"`
	ToCount           int              `json:"to_count"`
	Reason            string           `json:"reason"`
	CostImpactPerHour float64          `json:"cost_impact_per_hour"`
	Success           bool             `json:"success"`
	Error             string           `json:"error,omitempty"`
	DurationMs        int64            `json:"duration_ms"`
}

func NewScalingAction(target *ScalingTarget, decision *ScalingDecision) *ScalingAction {
	return &ScalingAction{
		ID:           NewUUID(),
		TargetID:     target.ID,
		Timestamp:    time.Now(),
		Direction:    decision.Direction,
		Trigger:      decision.Trigger,
		ResourceType: target.ResourceType,
		FromCount:    target.CurrentCount,
		ToCount:      decision.NewCount,
		Reason:       decision.Reason,
	}
}
