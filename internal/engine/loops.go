package engine

import (
	"context"
	"sync"
	"time"

	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/internal/metrics"
	"github.com/openfleet/autoscaler/pkg/models"
)

// controlLoop runs one tick function on a fixed interval until cancelled.
// Each of the engine's three loops owns its own goroutine and lifecycle.
type controlLoop struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newControlLoop(name string, interval time.Duration, tick func(ctx context.Context)) *controlLoop {
	return &controlLoop{name: name, interval: interval, tick: tick}
}

func (l *controlLoop) start(collector *metrics.Collector) {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		logger.WithField("loop", l.name).Debugf("Control loop started (interval %s)", l.interval)

		for {
			select {
			case <-ctx.Done():
				logger.WithField("loop", l.name).Debug("Control loop stopped")
				return
			case <-ticker.C:
				started := time.Now()
				l.tick(ctx)
				if collector != nil {
					collector.ObserveLoopDuration(l.name, time.Since(started).Seconds())
				}
			}
		}
	}()
}

func (l *controlLoop) stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

// monitorTick runs one reactive cycle over all targets in parallel.
func (e *Engine) monitorTick(ctx context.Context) {
	var wg sync.WaitGroup
	for _, entry := range e.snapshot() {
		wg.Add(1)
		go func(entry *targetEntry) {
			defer wg.Done()
			e.monitorTarget(ctx, entry)
		}(entry)
	}
	wg.Wait()
}

func (e *Engine) monitorTarget(ctx context.Context, entry *targetEntry) {
	target := entry.target

	fetchCtx, cancel := context.WithTimeout(ctx, e.config.FetchTimeout)
	values, err := e.provider.Fetch(fetchCtx, target)
	cancel()
	if err != nil {
		// A failed fetch skips this target for the tick; stale history is
		// never used in its place.
		logger.WithTarget(target.ID).Warnf("Metric fetch failed: %v", err)
		if e.collector != nil {
			e.collector.ObserveFetchError(target.ID)
		}
		if e.publisher != nil {
			e.publisher.Error(target.ID, "metric fetch failed", err)
		}
		return
	}

	now := time.Now()
	for metric, value := range values {
		e.history.Append(target.ID, metric, models.MetricSample{Timestamp: now, Value: value})
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	d := e.decisions.DecideReactive(target)
	entry.lastReactiveAt = time.Now()
	entry.lastReactiveMoved = d.Direction != models.DirectionSteady

	e.recordDecision(d)
	if d.ShouldExecute() {
		e.execute(entry, d)
	}
}

// predictTick retrains trend models and runs the predictive path for
// targets whose policy uses it.
func (e *Engine) predictTick(ctx context.Context) {
	var wg sync.WaitGroup
	for _, entry := range e.snapshot() {
		if !entry.target.UsesPrediction() {
			continue
		}
		wg.Add(1)
		go func(entry *targetEntry) {
			defer wg.Done()
			e.predictTarget(ctx, entry)
		}(entry)
	}
	wg.Wait()
}

func (e *Engine) predictTarget(_ context.Context, entry *targetEntry) {
	target := entry.target

	// Models are retrained every cycle even when the reactive path has
	// just acted, so the next forecast starts fresh.
	if _, err := e.forecaster.Train(target.ID, models.MetricCPU); err != nil {
		logger.WithTarget(target.ID).Debugf("Trend model not trained: %v", err)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// The reactive loop has priority: a target it just moved sits this
	// cycle out.
	if e.reactiveActedRecently(entry) {
		return
	}

	d := e.decisions.DecidePredictive(target)
	e.recordDecision(d)
	if d.ShouldExecute() {
		e.execute(entry, d)
	}
}

// costTick runs the cost-optimization path over all targets.
func (e *Engine) costTick(ctx context.Context) {
	var wg sync.WaitGroup
	for _, entry := range e.snapshot() {
		wg.Add(1)
		go func(entry *targetEntry) {
			defer wg.Done()
			e.costTarget(ctx, entry)
		}(entry)
	}
	wg.Wait()
}

func (e *Engine) costTarget(_ context.Context, entry *targetEntry) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if e.reactiveActedRecently(entry) {
		return
	}

	d := e.decisions.DecideCost(entry.target)
	e.recordDecision(d)
	if d.ShouldExecute() {
		e.execute(entry, d)
	}
}

// reactiveActedRecently reports whether the last reactive cycle produced a
// non-steady decision within one monitoring interval. Callers hold entry.mu.
func (e *Engine) reactiveActedRecently(entry *targetEntry) bool {
	return entry.lastReactiveMoved && time.Since(entry.lastReactiveAt) < e.config.MonitorInterval
}

func (e *Engine) recordDecision(d *models.ScalingDecision) {
	if e.collector != nil {
		e.collector.ObserveDecision(d)
	}
	if e.publisher != nil && d.Direction != models.DirectionSteady {
		e.publisher.DecisionMade(d)
	}
}

// execute runs one scaling action and refreshes gauges. Callers hold
// entry.mu so the decide-then-execute pair is atomic per target.
func (e *Engine) execute(entry *targetEntry, d *models.ScalingDecision) {
	target := entry.target
	action := e.executor.Execute(target, d)

	if e.collector != nil {
		e.collector.ObserveAction(action)
		e.collector.SetCurrentCount(target.ID, target.CurrentCount)
		e.collector.SetHourlyCost(target.ID, e.costs.HourlyCost(target.ResourceType, target.CurrentCount))
	}
}
