package models

import "time"

const ModelKindLinearTrend = "linear-trend"

// PredictionModel is per target-and-metric forecasting state. Models are
// retrained by the prediction loop whenever enough history exists.
type PredictionModel struct {
	TargetID           string         `json:"target_id"`
	Metric             ResourceMetric `json:"metric"`
	ModelKind          string         `json:"model_kind"`
	Slope              float64        `json:"slope"`
	Intercept          float64        `json:"intercept"`
	AccuracyEstimate   float64        `json:"accuracy_estimate"`
	HorizonMinutes     int            `json:"horizon_minutes"`
	LastTrainedAt      time.Time      `json:"last_trained_at"`
	TrainingPointCount int            `json:"training_point_count"`
}
