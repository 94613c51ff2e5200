package models

import "time"

type ScalingDirection string

const (
	DirectionUp     ScalingDirection = "up"
	DirectionDown   ScalingDirection = "down"
	DirectionSteady ScalingDirection = "steady"
)

type ScalingTrigger string

const (
	TriggerThreshold        ScalingTrigger = "threshold"
	TriggerTrend            ScalingTrigger = "trend"
	TriggerSchedule         ScalingTrigger = "schedule"
	TriggerPrediction       ScalingTrigger = "prediction"
	TriggerCostOptimization ScalingTrigger = "cost_optimization"
)

// ScalingDecision is produced by the decision engine and consumed
// immediately by the executor. It is never persisted.
type ScalingDecision struct {
	TargetID   string           `json:"target_id"`
	Timestamp  time.Time        `json:"timestamp"`
	Direction  ScalingDirection `json:"direction"`
	NewCount   int              `json:"new_count"`
	Reason     string           `json:"reason"`
	Trigger    ScalingTrigger   `json:"trigger"`
	Confidence float64          `json:"confidence"`
}

func (d *ScalingDecision) ShouldExecute() bool {
	return d.Direction != DirectionSteady
}

func NewSteadyDecision(targetID, reason string) *ScalingDecision {
	return &ScalingDecision{
		TargetID:  targetID,
		Timestamp: time.Now(),
		Direction: DirectionSteady,
		Reason:    reason,
	}
}
