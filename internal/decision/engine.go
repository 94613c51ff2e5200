package decision

import (
	"fmt"
	"math"
	"time"

	"github.com/openfleet/autoscaler/internal/cost"
	"github.com/openfleet/autoscaler/internal/forecast"
	"github.com/openfleet/autoscaler/internal/history"
	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/internal/threshold"
	"github.com/openfleet/autoscaler/pkg/models"
)

type Config struct {
	// CooldownPeriod paces all reactive and predictive actions per target.
	// It is engine-wide: the per-threshold cooldown_seconds field does not
	// shorten or extend it.
	CooldownPeriod time.Duration

	// CostCooldownPeriod is the extended pacing window for the
	// cost-optimization path.
	CostCooldownPeriod time.Duration

	// MaxUpStep caps a single reactive scale-up as a fraction of the
	// current count. MaxPredictiveUpStep is the tighter cap used when
	// acting on a forecast instead of an observed breach.
	MaxUpStep           float64
	MaxPredictiveUpStep float64

	// Idle detection for the cost path.
	IdleWindow        time.Duration
	IdleAvgThreshold  float64
	IdlePeakThreshold float64
	MinMonthlySavings float64
}

const (
	reactiveConfidence = 0.9
	costConfidence     = 0.95
)

type Engine struct {
	config     Config
	store      *history.Store
	thresholds *threshold.Evaluator
	forecaster *forecast.Forecaster
	costs      *cost.Estimator
}

func NewEngine(cfg Config, store *history.Store, forecaster *forecast.Forecaster, costs *cost.Estimator) *Engine {
	if cfg.CooldownPeriod == 0 {
		cfg.CooldownPeriod = 10 * time.Minute
	}
	if cfg.CostCooldownPeriod == 0 {
		cfg.CostCooldownPeriod = 30 * time.Minute
	}
	if cfg.MaxUpStep == 0 {
		cfg.MaxUpStep = 0.5
	}
	if cfg.MaxPredictiveUpStep == 0 {
		cfg.MaxPredictiveUpStep = 0.3
	}
	if cfg.IdleWindow == 0 {
		cfg.IdleWindow = 2 * time.Hour
	}
	if cfg.IdleAvgThreshold == 0 {
		cfg.IdleAvgThreshold = 20.0
	}
	if cfg.IdlePeakThreshold == 0 {
		cfg.IdlePeakThreshold = 40.0
	}
	if cfg.MinMonthlySavings == 0 {
		cfg.MinMonthlySavings = 10.0
	}

	return &Engine{
		config:     cfg,
		store:      store,
		thresholds: threshold.NewEvaluator(store),
		forecaster: forecaster,
		costs:      costs,
	}
}

// DecideReactive runs the threshold evaluation path for one target.
func (e *Engine) DecideReactive(target *models.ScalingTarget) *models.ScalingDecision {
	if e.inCooldown(target, e.config.CooldownPeriod) {
		logger.WithTarget(target.ID).Debug("Decision: steady (cooldown active)")
		return models.NewSteadyDecision(target.ID, "in cooldown")
	}

	result := e.thresholds.Evaluate(target)

	switch result.Direction {
	case models.DirectionUp:
		if !target.CanScaleUp() {
			return models.NewSteadyDecision(target.ID, "at max capacity")
		}
		avg := threshold.Average(result.Samples)
		newCount := scaleUpCount(target.CurrentCount, avg, result.Threshold.ScaleUpValue,
			e.config.MaxUpStep, target.MaxCount)
		return e.decision(target, models.DirectionUp, newCount,
			models.TriggerThreshold, result.Reason, reactiveConfidence)

	case models.DirectionDown:
		if !target.CanScaleDown() {
			return models.NewSteadyDecision(target.ID, "at min capacity")
		}
		avg := threshold.Average(result.Samples)
		newCount := scaleDownCount(target.CurrentCount, avg, result.Threshold.ScaleDownValue,
			target.MinCount)
		return e.decision(target, models.DirectionDown, newCount,
			models.TriggerThreshold, result.Reason, reactiveConfidence)
	}

	return models.NewSteadyDecision(target.ID, result.Reason)
}

// DecidePredictive compares the forecast peak over the horizon against the
// target's CPU scale-up value. It acts with a tighter magnitude cap than a
// directly observed breach.
func (e *Engine) DecidePredictive(target *models.ScalingTarget) *models.ScalingDecision {
	if !target.UsesPrediction() {
		return models.NewSteadyDecision(target.ID, "policy does not use prediction")
	}
	if e.inCooldown(target, e.config.CooldownPeriod) {
		return models.NewSteadyDecision(target.ID, "in cooldown")
	}
	if !target.CanScaleUp() {
		return models.NewSteadyDecision(target.ID, "at max capacity")
	}

	th, ok := target.ThresholdFor(models.MetricCPU)
	if !ok {
		return models.NewSteadyDecision(target.ID, "no cpu threshold configured")
	}

	predictions, err := e.forecaster.Horizon(target.ID, models.MetricCPU)
	if err != nil {
		// Not enough history yet; the predictive path simply does not fire.
		return models.NewSteadyDecision(target.ID, "forecast unavailable")
	}

	peak := maxValue(predictions)
	if peak <= th.ScaleUpValue {
		return models.NewSteadyDecision(target.ID, "forecast within threshold")
	}

	confidence := 0.5
	if model, ok := e.forecaster.Model(target.ID, models.MetricCPU); ok {
		confidence = model.AccuracyEstimate
	}

	newCount := scaleUpCount(target.CurrentCount, peak, th.ScaleUpValue,
		e.config.MaxPredictiveUpStep, target.MaxCount)
	reason := fmt.Sprintf("forecast cpu peak %.1f above %.1f within horizon", peak, th.ScaleUpValue)
	return e.decision(target, models.DirectionUp, newCount, models.TriggerPrediction, reason, confidence)
}

// DecideCost scales sustained-idle targets down by exactly one unit when the
// projected monthly savings clear the configured floor.
func (e *Engine) DecideCost(target *models.ScalingTarget) *models.ScalingDecision {
	if e.inCooldown(target, e.config.CostCooldownPeriod) {
		return models.NewSteadyDecision(target.ID, "in cost cooldown")
	}
	if !target.CanScaleDown() {
		return models.NewSteadyDecision(target.ID, "at min capacity")
	}

	samples := e.store.Since(target.ID, models.MetricCPU, e.config.IdleWindow)
	if len(samples) == 0 {
		return models.NewSteadyDecision(target.ID, "no utilization history")
	}

	avg := threshold.Average(samples)
	peak := peakValue(samples)
	if avg >= e.config.IdleAvgThreshold || peak >= e.config.IdlePeakThreshold {
		return models.NewSteadyDecision(target.ID, "utilization not idle")
	}

	savings := e.costs.MonthlySavings(target.ResourceType, target.CurrentCount, target.CurrentCount-1)
	if savings <= e.config.MinMonthlySavings {
		return models.NewSteadyDecision(target.ID, "projected savings below threshold")
	}

	reason := fmt.Sprintf("idle capacity: avg %.1f peak %.1f, saves $%.2f/month", avg, peak, savings)
	return e.decision(target, models.DirectionDown, target.CurrentCount-1,
		models.TriggerCostOptimization, reason, costConfidence)
}

// CooldownRemaining reports how long until the target is eligible again.
func (e *Engine) CooldownRemaining(target *models.ScalingTarget) time.Duration {
	if target.LastScaledAt == nil {
		return 0
	}
	elapsed := time.Since(*target.LastScaledAt)
	if elapsed >= e.config.CooldownPeriod {
		return 0
	}
	return e.config.CooldownPeriod - elapsed
}

func (e *Engine) inCooldown(target *models.ScalingTarget, window time.Duration) bool {
	return target.LastScaledAt != nil && time.Since(*target.LastScaledAt) < window
}

func (e *Engine) decision(
	target *models.ScalingTarget,
	direction models.ScalingDirection,
	newCount int,
	trigger models.ScalingTrigger,
	reason string,
	confidence float64,
) *models.ScalingDecision {
	logger.WithTarget(target.ID).Infof(
		"Decision: %s %d -> %d (trigger: %s, reason: %s)",
		direction, target.CurrentCount, newCount, trigger, reason,
	)
	return &models.ScalingDecision{
		TargetID:   target.ID,
		Timestamp:  time.Now(),
		Direction:  direction,
		NewCount:   newCount,
		Reason:     reason,
		Trigger:    trigger,
		Confidence: confidence,
	}
}

// scaleUpCount grows proportionally to how far the window average overshot
// the trigger value, capped at maxStep of the current count.
func scaleUpCount(current int, avg, upValue, maxStep float64, maxCount int) int {
	excessRatio := avg / upValue
	factor := 1 + math.Min(maxStep, 0.25+0.25*(excessRatio-1))
	newCount := int(math.Ceil(float64(current) * factor))
	if newCount > maxCount {
		newCount = maxCount
	}
	return newCount
}

// scaleDownCount shrinks more conservatively than scale-up grows; a single
// step never removes more than half of current capacity.
func scaleDownCount(current int, avg, downValue float64, minCount int) int {
	underRatio := avg / downValue
	factor := 1 - math.Min(0.5, 0.1+0.15*(1-underRatio))
	newCount := int(math.Floor(float64(current) * factor))
	if newCount < minCount {
		newCount = minCount
	}
	return newCount
}

func maxValue(values []float64) float64 {
	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

func peakValue(samples []models.MetricSample) float64 {
	var max float64
	for _, s := range samples {
		if s.Value > max {
			max = s.Value
		}
	}
	return max
}
