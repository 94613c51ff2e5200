package threshold

import (
	"fmt"

	"github.com/openfleet/autoscaler/internal/history"
	"github.com/openfleet/autoscaler/pkg/models"
)

// Result is the outcome of evaluating a target's thresholds for one cycle.
// Samples is the evaluation window of the triggering threshold, oldest to
// newest, and is used by the decision engine to compute magnitude.
type Result struct {
	Direction models.ScalingDirection
	Threshold models.MetricThreshold
	Samples   []models.MetricSample
	Reason    string
}

// Evaluator runs reactive trigger logic over recent samples.
type Evaluator struct {
	store *history.Store
}

func NewEvaluator(store *history.Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate walks the target's thresholds in declared order. A scale-up
// trigger is final: evaluation stops at the first threshold whose whole
// window exceeds its up value. A scale-down trigger is recorded as a
// candidate and evaluation continues, so among several simultaneous
// scale-down signals the last-declared threshold sets the magnitude.
func (e *Evaluator) Evaluate(target *models.ScalingTarget) Result {
	result := Result{
		Direction: models.DirectionSteady,
		Reason:    "no threshold breached",
	}

	for _, th := range target.Thresholds {
		samples := e.store.Latest(target.ID, th.Metric, th.EvaluationPeriods)
		if len(samples) < th.EvaluationPeriods {
			continue
		}

		if allAbove(samples, th.ScaleUpValue) {
			return Result{
				Direction: models.DirectionUp,
				Threshold: th,
				Samples:   samples,
				Reason: fmt.Sprintf("%s above %.1f for %d periods",
					th.Metric, th.ScaleUpValue, th.EvaluationPeriods),
			}
		}

		if allBelow(samples, th.ScaleDownValue) {
			result = Result{
				Direction: models.DirectionDown,
				Threshold: th,
				Samples:   samples,
				Reason: fmt.Sprintf("%s below %.1f for %d periods",
					th.Metric, th.ScaleDownValue, th.EvaluationPeriods),
			}
		}
	}

	return result
}

func allAbove(samples []models.MetricSample, value float64) bool {
	for _, s := range samples {
		if s.Value <= value {
			return false
		}
	}
	return true
}

func allBelow(samples []models.MetricSample, value float64) bool {
	for _, s := range samples {
		if s.Value >= value {
			return false
		}
	}
	return true
}

// Average returns the mean value of a sample window.
func Average(samples []models.MetricSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += s.Value
	}
	return total / float64(len(samples))
}
