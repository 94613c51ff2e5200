package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/autoscaler/internal/forecast"
	"github.com/openfleet/autoscaler/internal/history"
	"github.com/openfleet/autoscaler/pkg/models"
)

func TestFit_LinearSeries(t *testing.T) {
	values := []float64{50, 51, 52, 53, 54, 55}

	m := forecast.Fit(values)

	assert.InDelta(t, 1.0, m.Slope, 1e-9)
	assert.InDelta(t, 50.0, m.Intercept, 1e-9)
	assert.Equal(t, 6, m.Points)
}

func TestFit_FlatSeries(t *testing.T) {
	m := forecast.Fit([]float64{40, 40, 40, 40})

	assert.InDelta(t, 0.0, m.Slope, 1e-9)
	assert.InDelta(t, 40.0, m.Intercept, 1e-9)
}

func TestFit_Degenerate(t *testing.T) {
	assert.Equal(t, forecast.TrendModel{}, forecast.Fit(nil))

	single := forecast.Fit([]float64{33})
	assert.Equal(t, 33.0, single.Intercept)
	assert.Equal(t, 1, single.Points)
}

func TestTrendModel_PredictClampsNegative(t *testing.T) {
	m := forecast.Fit([]float64{10, 8, 6, 4, 2})

	assert.Equal(t, 0.0, m.PredictAt(100))
}

func TestTrendModel_PredictUnfitted(t *testing.T) {
	var m forecast.TrendModel

	out := m.Predict([]int{1, 2, 3})
	require.Len(t, out, 3)
	for _, v := range out {
		assert.Equal(t, 0.0, v)
	}
}

func seedLinearCPU(store *history.Store, targetID string, n int, start, slope float64) {
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		store.Append(targetID, models.MetricCPU, models.MetricSample{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Value:     start + slope*float64(i),
		})
	}
}

func TestForecaster_TrainRequiresMinimumHistory(t *testing.T) {
	store := history.NewStore(100)
	f := forecast.NewForecaster(store, forecast.Config{})

	seedLinearCPU(store, "web", forecast.MinTrainingPoints-1, 50, 1)

	_, err := f.Train("web", models.MetricCPU)
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)
}

func TestForecaster_HorizonWithoutTraining(t *testing.T) {
	store := history.NewStore(100)
	f := forecast.NewForecaster(store, forecast.Config{})

	_, err := f.Horizon("web", models.MetricCPU)
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)
}

func TestForecaster_RisingTrendForecast(t *testing.T) {
	store := history.NewStore(100)
	f := forecast.NewForecaster(store, forecast.Config{
		Lookback:     2 * time.Hour,
		SamplePeriod: time.Minute,
		Horizon:      30 * time.Minute,
		Step:         5 * time.Minute,
	})

	// 30 minutes of CPU rising one point per minute: 50, 51, ... 79.
	seedLinearCPU(store, "web", 30, 50, 1)

	model, err := f.Train("web", models.MetricCPU)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, model.Slope, 0.01)
	assert.Equal(t, 30, model.TrainingPointCount)
	assert.Greater(t, model.AccuracyEstimate, 0.9)

	predictions, err := f.Horizon("web", models.MetricCPU)
	require.NoError(t, err)
	require.Len(t, predictions, 6)

	// Five minutes ahead extrapolates to ~84, thirty minutes to ~109.
	assert.InDelta(t, 84.0, predictions[0], 1.0)
	assert.InDelta(t, 109.0, predictions[5], 1.0)

	for i := 1; i < len(predictions); i++ {
		assert.Greater(t, predictions[i], predictions[i-1])
	}
}

func TestForecaster_ModelMetadata(t *testing.T) {
	store := history.NewStore(100)
	f := forecast.NewForecaster(store, forecast.Config{})

	_, ok := f.Model("web", models.MetricCPU)
	assert.False(t, ok)

	seedLinearCPU(store, "web", 20, 60, 0)
	_, err := f.Train("web", models.MetricCPU)
	require.NoError(t, err)

	meta, ok := f.Model("web", models.MetricCPU)
	require.True(t, ok)
	assert.Equal(t, "web", meta.TargetID)
	assert.Equal(t, models.ModelKindLinearTrend, meta.ModelKind)
	assert.Equal(t, 30, meta.HorizonMinutes)
	assert.WithinDuration(t, time.Now(), meta.LastTrainedAt, time.Minute)
}
