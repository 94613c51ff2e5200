package executor

import (
	"context"
	"time"

	"github.com/openfleet/autoscaler/internal/cost"
	"github.com/openfleet/autoscaler/internal/events"
	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/internal/scaler"
	"github.com/openfleet/autoscaler/pkg/models"
)

// Executor applies a decision through the ResourceScaler, mutates the
// target's recorded state on success, and appends the outcome to the
// ledger. It never retries: the next tick re-evaluates from current state.
type Executor struct {
	scaler       scaler.ResourceScaler
	costs        *cost.Estimator
	ledger       *Ledger
	publisher    *events.Publisher
	applyTimeout time.Duration
}

type Config struct {
	Scaler       scaler.ResourceScaler
	Costs        *cost.Estimator
	Ledger       *Ledger
	Publisher    *events.Publisher
	ApplyTimeout time.Duration
}

func New(cfg Config) *Executor {
	if cfg.ApplyTimeout == 0 {
		cfg.ApplyTimeout = 30 * time.Second
	}
	if cfg.Ledger == nil {
		cfg.Ledger = NewLedger(0)
	}
	return &Executor{
		scaler:       cfg.Scaler,
		costs:        cfg.Costs,
		ledger:       cfg.Ledger,
		publisher:    cfg.Publisher,
		applyTimeout: cfg.ApplyTimeout,
	}
}

func (x *Executor) Ledger() *Ledger {
	return x.ledger
}

// Execute applies the decision. The apply call runs under its own timeout,
// detached from loop shutdown, so an in-flight capacity change is allowed
// to finish and the recorded count never diverges from real capacity.
func (x *Executor) Execute(target *models.ScalingTarget, decision *models.ScalingDecision) *models.ScalingAction {
	action := models.NewScalingAction(target, decision)
	action.CostImpactPerHour = x.costs.HourlyCost(target.ResourceType, decision.NewCount) -
		x.costs.HourlyCost(target.ResourceType, target.CurrentCount)

	ctx, cancel := context.WithTimeout(context.Background(), x.applyTimeout)
	defer cancel()

	start := time.Now()
	ok, err := x.scaler.Apply(ctx, target, decision.NewCount)
	action.DurationMs = time.Since(start).Milliseconds()
	action.Success = ok && err == nil

	if action.Success {
		target.CurrentCount = decision.NewCount
		now := time.Now()
		target.LastScaledAt = &now

		logger.WithTarget(target.ID).Infof(
			"Scaled %s %d -> %d (%s, cost impact %+.4f/h)",
			action.Direction, action.FromCount, action.ToCount,
			action.Trigger, action.CostImpactPerHour,
		)
	} else {
		if err != nil {
			action.Error = err.Error()
		}
		logger.WithTarget(target.ID).Errorf(
			"Scaling apply failed (%s %d -> %d): %v",
			action.Direction, action.FromCount, action.ToCount, err,
		)
	}

	x.ledger.Append(action)

	if x.publisher != nil {
		if action.Success {
			x.publisher.ScalingExecuted(action)
		} else {
			x.publisher.ScalingFailed(action)
		}
	}

	return action
}
