package decision_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/autoscaler/internal/cost"
	"github.com/openfleet/autoscaler/internal/decision"
	"github.com/openfleet/autoscaler/internal/forecast"
	"github.com/openfleet/autoscaler/internal/history"
	"github.com/openfleet/autoscaler/pkg/models"
)

type fixture struct {
	store      *history.Store
	forecaster *forecast.Forecaster
	engine     *decision.Engine
}

func newFixture(cfg decision.Config) *fixture {
	store := history.NewStore(2000)
	forecaster := forecast.NewForecaster(store, forecast.Config{
		Lookback:     2 * time.Hour,
		SamplePeriod: time.Minute,
		Horizon:      30 * time.Minute,
		Step:         5 * time.Minute,
	})
	costs := cost.NewEstimator(map[string]float64{
		"vm":    0.09,
		"cheap": 0.01,
	}, 0.05)
	return &fixture{
		store:      store,
		forecaster: forecaster,
		engine:     decision.NewEngine(cfg, store, forecaster, costs),
	}
}

func webTarget() *models.ScalingTarget {
	return &models.ScalingTarget{
		ID:           "web",
		Name:         "web tier",
		ResourceType: "vm",
		CurrentCount: 3,
		MinCount:     2,
		MaxCount:     10,
		Policy:       models.PolicyHybrid,
		Thresholds: []models.MetricThreshold{
			{
				Metric:            models.MetricCPU,
				ScaleUpValue:      70,
				ScaleDownValue:    30,
				EvaluationPeriods: 3,
				CooldownSeconds:   300,
			},
		},
	}
}

func (f *fixture) seedCPU(targetID string, values ...float64) {
	base := time.Now().Add(-time.Duration(len(values)) * time.Minute)
	for i, v := range values {
		f.store.Append(targetID, models.MetricCPU, models.MetricSample{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Value:     v,
		})
	}
}

func TestDecideReactive_ScaleUpMagnitude(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()
	f.seedCPU("web", 82, 86, 86)

	d := f.engine.DecideReactive(target)

	assert.Equal(t, models.DirectionUp, d.Direction)
	assert.Equal(t, models.TriggerThreshold, d.Trigger)
	// avg 84.67 against trigger 70: factor ~1.30, ceil(3 * 1.30) = 4.
	assert.Equal(t, 4, d.NewCount)
	assert.True(t, d.ShouldExecute())
}

func TestDecideReactive_ScaleDownMagnitude(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()
	f.seedCPU("web", 18, 17, 18)

	d := f.engine.DecideReactive(target)

	assert.Equal(t, models.DirectionDown, d.Direction)
	// avg 17.67 against trigger 30: factor ~0.84, floor(3 * 0.84) = 2.
	assert.Equal(t, 2, d.NewCount)
}

func TestDecideReactive_CooldownBlocksAction(t *testing.T) {
	f := newFixture(decision.Config{CooldownPeriod: 10 * time.Minute})
	target := webTarget()
	lastScaled := time.Now().Add(-2 * time.Minute)
	target.LastScaledAt = &lastScaled
	f.seedCPU("web", 95, 96, 97)

	d := f.engine.DecideReactive(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "in cooldown", d.Reason)
	assert.False(t, d.ShouldExecute())
}

func TestDecideReactive_CooldownExpires(t *testing.T) {
	f := newFixture(decision.Config{CooldownPeriod: 10 * time.Minute})
	target := webTarget()
	lastScaled := time.Now().Add(-11 * time.Minute)
	target.LastScaledAt = &lastScaled
	f.seedCPU("web", 95, 96, 97)

	d := f.engine.DecideReactive(target)

	assert.Equal(t, models.DirectionUp, d.Direction)
}

func TestDecideReactive_AtMaxCapacity(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()
	target.CurrentCount = 10
	f.seedCPU("web", 95, 96, 97)

	d := f.engine.DecideReactive(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "at max capacity", d.Reason)
}

func TestDecideReactive_AtMinCapacity(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()
	target.CurrentCount = 2
	f.seedCPU("web", 10, 11, 12)

	d := f.engine.DecideReactive(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "at min capacity", d.Reason)
}

func TestDecideReactive_NoHistory(t *testing.T) {
	f := newFixture(decision.Config{})

	d := f.engine.DecideReactive(webTarget())

	assert.Equal(t, models.DirectionSteady, d.Direction)
}

// Scale-up magnitude never exceeds half the current count and scale-down
// never removes more than half, across a spread of utilization levels.
func TestDecide_MagnitudeBounds(t *testing.T) {
	for i, avg := range []float64{70.5, 80, 100, 140, 250, 999} {
		f := newFixture(decision.Config{})
		target := webTarget()
		target.CurrentCount = 6
		id := fmt.Sprintf("up-%d", i)
		target.ID = id
		f.seedCPU(id, avg, avg, avg)

		d := f.engine.DecideReactive(target)
		require.Equal(t, models.DirectionUp, d.Direction)
		assert.Greater(t, d.NewCount, target.CurrentCount)
		assert.LessOrEqual(t, d.NewCount, int(math.Ceil(1.5*float64(target.CurrentCount))))
	}

	for i, avg := range []float64{29.5, 20, 10, 1, 0} {
		f := newFixture(decision.Config{})
		target := webTarget()
		target.CurrentCount = 8
		id := fmt.Sprintf("down-%d", i)
		target.ID = id
		f.seedCPU(id, avg, avg, avg)

		d := f.engine.DecideReactive(target)
		require.Equal(t, models.DirectionDown, d.Direction)
		assert.Less(t, d.NewCount, target.CurrentCount)
		assert.GreaterOrEqual(t, d.NewCount, int(math.Floor(0.75*float64(target.CurrentCount))))
		assert.GreaterOrEqual(t, d.NewCount, target.MinCount)
	}
}

func TestDecidePredictive_FiresOnForecastBreach(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()

	// CPU rising one point per minute for 30 minutes: forecast peaks
	// well above the 70 trigger within the horizon.
	values := make([]float64, 30)
	for i := range values {
		values[i] = 50 + float64(i)
	}
	f.seedCPU("web", values...)

	_, err := f.forecaster.Train("web", models.MetricCPU)
	require.NoError(t, err)

	d := f.engine.DecidePredictive(target)

	assert.Equal(t, models.DirectionUp, d.Direction)
	assert.Equal(t, models.TriggerPrediction, d.Trigger)
	// The predictive step is capped tighter than a reactive one.
	assert.LessOrEqual(t, d.NewCount, int(math.Ceil(1.3*float64(target.CurrentCount))))
	assert.Greater(t, d.Confidence, 0.0)
}

func TestDecidePredictive_PolicyGate(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()
	target.Policy = models.PolicyReactive

	d := f.engine.DecidePredictive(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "policy does not use prediction", d.Reason)
}

func TestDecidePredictive_NoModelTrained(t *testing.T) {
	f := newFixture(decision.Config{})

	d := f.engine.DecidePredictive(webTarget())

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "forecast unavailable", d.Reason)
}

func TestDecidePredictive_ForecastWithinThreshold(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()

	values := make([]float64, 30)
	for i := range values {
		values[i] = 40
	}
	f.seedCPU("web", values...)
	_, err := f.forecaster.Train("web", models.MetricCPU)
	require.NoError(t, err)

	d := f.engine.DecidePredictive(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "forecast within threshold", d.Reason)
}

func TestDecideCost_ScalesDownIdleTarget(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()

	// Two hours of low utilization, all samples under both idle bars.
	values := make([]float64, 120)
	for i := range values {
		values[i] = 12 + float64(i%5)
	}
	f.seedCPU("web", values...)

	d := f.engine.DecideCost(target)

	assert.Equal(t, models.DirectionDown, d.Direction)
	assert.Equal(t, models.TriggerCostOptimization, d.Trigger)
	// Cost optimization steps down exactly one unit.
	assert.Equal(t, target.CurrentCount-1, d.NewCount)
}

func TestDecideCost_PeakDisqualifies(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()

	values := make([]float64, 120)
	for i := range values {
		values[i] = 10
	}
	values[60] = 55 // one burst above the peak bar
	f.seedCPU("web", values...)

	d := f.engine.DecideCost(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "utilization not idle", d.Reason)
}

func TestDecideCost_SavingsBelowFloor(t *testing.T) {
	f := newFixture(decision.Config{})
	target := webTarget()
	target.ResourceType = "cheap" // $0.01/h: one unit saves $7.20/month

	values := make([]float64, 120)
	for i := range values {
		values[i] = 10
	}
	f.seedCPU("web", values...)

	d := f.engine.DecideCost(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "projected savings below threshold", d.Reason)
}

func TestDecideCost_ExtendedCooldown(t *testing.T) {
	f := newFixture(decision.Config{
		CooldownPeriod:     10 * time.Minute,
		CostCooldownPeriod: 30 * time.Minute,
	})
	target := webTarget()
	// Past the regular cooldown but inside the cost one.
	lastScaled := time.Now().Add(-15 * time.Minute)
	target.LastScaledAt = &lastScaled

	values := make([]float64, 120)
	for i := range values {
		values[i] = 10
	}
	f.seedCPU("web", values...)

	d := f.engine.DecideCost(target)

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "in cost cooldown", d.Reason)
}

func TestDecideCost_NoHistory(t *testing.T) {
	f := newFixture(decision.Config{})

	d := f.engine.DecideCost(webTarget())

	assert.Equal(t, models.DirectionSteady, d.Direction)
	assert.Equal(t, "no utilization history", d.Reason)
}

func TestCooldownRemaining(t *testing.T) {
	f := newFixture(decision.Config{CooldownPeriod: 10 * time.Minute})
	target := webTarget()

	assert.Equal(t, time.Duration(0), f.engine.CooldownRemaining(target))

	lastScaled := time.Now().Add(-4 * time.Minute)
	target.LastScaledAt = &lastScaled
	remaining := f.engine.CooldownRemaining(target)
	assert.Greater(t, remaining, 5*time.Minute)
	assert.LessOrEqual(t, remaining, 6*time.Minute)
}
