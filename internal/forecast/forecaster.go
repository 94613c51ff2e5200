package forecast

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/openfleet/autoscaler/internal/history"
	"github.com/openfleet/autoscaler/pkg/models"
)

// ErrInsufficientData means the lookback window holds too few points to
// train a model. The predictive path treats this as "do not fire", not
// as a failure.
var ErrInsufficientData = errors.New("insufficient history to train model")

// MinTrainingPoints is the minimum history length required to retrain.
const MinTrainingPoints = 10

// TrendModel is an ordinary least-squares line fit over index-vs-value,
// where index is the position in the historical sequence.
type TrendModel struct {
	Slope     float64
	Intercept float64
	Points    int
}

// Fit computes slope and intercept over the series. Empty input yields a
// zero model; a single point yields a flat line at that point.
func Fit(values []float64) TrendModel {
	n := len(values)
	if n == 0 {
		return TrendModel{}
	}
	if n == 1 {
		return TrendModel{Intercept: values[0], Points: 1}
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}

	fn := float64(n)
	denom := fn*sumX2 - sumX*sumX
	if denom == 0 {
		return TrendModel{Intercept: sumY / fn, Points: n}
	}

	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn
	return TrendModel{Slope: slope, Intercept: intercept, Points: n}
}

// PredictAt extrapolates the fitted line to a future index. Negative
// predictions are clamped to zero.
func (m TrendModel) PredictAt(index int) float64 {
	v := m.Intercept + m.Slope*float64(index)
	if v < 0 {
		return 0
	}
	return v
}

// Predict returns one value per future index. An unfitted (empty-history)
// model predicts all zeros of the requested length.
func (m TrendModel) Predict(indexes []int) []float64 {
	out := make([]float64, len(indexes))
	if m.Points == 0 {
		return out
	}
	for i, idx := range indexes {
		out[i] = m.PredictAt(idx)
	}
	return out
}

type modelKey struct {
	targetID string
	metric   models.ResourceMetric
}

// Forecaster trains and stores per target-and-metric trend models.
type Forecaster struct {
	store        *history.Store
	lookback     time.Duration
	samplePeriod time.Duration
	horizon      time.Duration
	step         time.Duration

	mu     sync.RWMutex
	models map[modelKey]trainedModel
}

type trainedModel struct {
	trend TrendModel
	meta  models.PredictionModel
}

type Config struct {
	Lookback     time.Duration // history window used for training
	SamplePeriod time.Duration // expected spacing between samples
	Horizon      time.Duration // how far ahead the predictive path looks
	Step         time.Duration // spacing between forecast points
}

func NewForecaster(store *history.Store, cfg Config) *Forecaster {
	if cfg.Lookback == 0 {
		cfg.Lookback = 2 * time.Hour
	}
	if cfg.SamplePeriod == 0 {
		cfg.SamplePeriod = time.Minute
	}
	if cfg.Horizon == 0 {
		cfg.Horizon = 30 * time.Minute
	}
	if cfg.Step == 0 {
		cfg.Step = 5 * time.Minute
	}

	return &Forecaster{
		store:        store,
		lookback:     cfg.Lookback,
		samplePeriod: cfg.SamplePeriod,
		horizon:      cfg.Horizon,
		step:         cfg.Step,
		models:       make(map[modelKey]trainedModel),
	}
}

// Train refits the model for a series from the lookback window.
func (f *Forecaster) Train(targetID string, metric models.ResourceMetric) (*models.PredictionModel, error) {
	samples := f.store.Since(targetID, metric, f.lookback)
	if len(samples) < MinTrainingPoints {
		return nil, ErrInsufficientData
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}

	trend := Fit(values)
	meta := models.PredictionModel{
		TargetID:           targetID,
		Metric:             metric,
		ModelKind:          models.ModelKindLinearTrend,
		Slope:              trend.Slope,
		Intercept:          trend.Intercept,
		AccuracyEstimate:   accuracyEstimate(trend, values),
		HorizonMinutes:     int(f.horizon.Minutes()),
		LastTrainedAt:      time.Now(),
		TrainingPointCount: len(values),
	}

	key := modelKey{targetID: targetID, metric: metric}
	f.mu.Lock()
	f.models[key] = trainedModel{trend: trend, meta: meta}
	f.mu.Unlock()

	result := meta
	return &result, nil
}

// Horizon forecasts the series at each step over the configured horizon,
// using the most recently trained model. Future points are expressed as
// sample indexes past the end of the training window.
func (f *Forecaster) Horizon(targetID string, metric models.ResourceMetric) ([]float64, error) {
	f.mu.RLock()
	tm, ok := f.models[modelKey{targetID: targetID, metric: metric}]
	f.mu.RUnlock()
	if !ok {
		return nil, ErrInsufficientData
	}

	steps := int(f.horizon / f.step)
	indexesPerStep := int(f.step / f.samplePeriod)
	if indexesPerStep < 1 {
		indexesPerStep = 1
	}

	indexes := make([]int, 0, steps)
	for k := 1; k <= steps; k++ {
		indexes = append(indexes, tm.trend.Points-1+k*indexesPerStep)
	}
	return tm.trend.Predict(indexes), nil
}

// Model returns the stored metadata for a series, if trained.
func (f *Forecaster) Model(targetID string, metric models.ResourceMetric) (*models.PredictionModel, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tm, ok := f.models[modelKey{targetID: targetID, metric: metric}]
	if !ok {
		return nil, false
	}
	meta := tm.meta
	return &meta, true
}

// accuracyEstimate scores the fit as 1 minus the RMSE normalized by the
// series mean, clamped to [0, 1]. It is a rough confidence signal, not a
// statistical measure.
func accuracyEstimate(m TrendModel, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean, sse float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	if mean == 0 {
		return 0
	}

	for i, v := range values {
		pred := m.Intercept + m.Slope*float64(i)
		sse += (v - pred) * (v - pred)
	}
	rmse := math.Sqrt(sse / float64(len(values)))

	acc := 1 - rmse/mean
	if acc < 0 {
		return 0
	}
	if acc > 1 {
		return 1
	}
	return acc
}
