package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openfleet/autoscaler/internal/cost"
	"github.com/openfleet/autoscaler/internal/decision"
	"github.com/openfleet/autoscaler/internal/events"
	"github.com/openfleet/autoscaler/internal/executor"
	"github.com/openfleet/autoscaler/internal/forecast"
	"github.com/openfleet/autoscaler/internal/history"
	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/internal/metrics"
	"github.com/openfleet/autoscaler/internal/provider"
	"github.com/openfleet/autoscaler/internal/scaler"
	"github.com/openfleet/autoscaler/pkg/models"
)

var (
	// ErrValidation marks rejected target registrations.
	ErrValidation = errors.New("validation failed")

	// ErrTargetNotFound is returned by lookups for unregistered targets.
	ErrTargetNotFound = errors.New("target not found")
)

type Config struct {
	MonitorInterval time.Duration // reactive loop, default 60s
	PredictInterval time.Duration // prediction loop, default 300s
	CostInterval    time.Duration // cost-optimization loop, default 3600s
	FetchTimeout    time.Duration // bound on one metrics fetch, default 5s
	ApplyTimeout    time.Duration // bound on one scaling apply, default 30s
	HistoryCapacity int           // samples kept per target-and-metric series

	Decision decision.Config
	Forecast forecast.Config
}

// Deps are the engine's injected collaborators. Provider, Scaler and Costs
// are required; Publisher and Metrics may be nil.
type Deps struct {
	Provider  provider.MetricsProvider
	Scaler    scaler.ResourceScaler
	Costs     *cost.Estimator
	Publisher *events.Publisher
	Metrics   *metrics.Collector
}

// targetEntry pairs a target with the mutex that serializes its full
// decide-then-execute sequence across the three loops, and with the result
// of the last reactive cycle used for cross-loop tie-breaking.
type targetEntry struct {
	target *models.ScalingTarget

	mu                sync.Mutex
	lastReactiveAt    time.Time
	lastReactiveMoved bool
}

// Engine is one autoscaling control-plane instance. All registered
// targets, their history, forecasting models, and the action ledger hang
// off the engine so independent instances can be tested in isolation.
type Engine struct {
	config     Config
	provider   provider.MetricsProvider
	costs      *cost.Estimator
	history    *history.Store
	forecaster *forecast.Forecaster
	decisions  *decision.Engine
	executor   *executor.Executor
	publisher  *events.Publisher
	collector  *metrics.Collector

	mu      sync.RWMutex
	targets map[string]*targetEntry

	runMu   sync.Mutex
	running bool
	loops   []*controlLoop
}

func New(cfg Config, deps Deps) *Engine {
	if cfg.MonitorInterval == 0 {
		cfg.MonitorInterval = 60 * time.Second
	}
	if cfg.PredictInterval == 0 {
		cfg.PredictInterval = 300 * time.Second
	}
	if cfg.CostInterval == 0 {
		cfg.CostInterval = 3600 * time.Second
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.ApplyTimeout == 0 {
		cfg.ApplyTimeout = 30 * time.Second
	}

	store := history.NewStore(cfg.HistoryCapacity)
	forecaster := forecast.NewForecaster(store, cfg.Forecast)

	exec := executor.New(executor.Config{
		Scaler:       deps.Scaler,
		Costs:        deps.Costs,
		Publisher:    deps.Publisher,
		ApplyTimeout: cfg.ApplyTimeout,
	})

	return &Engine{
		config:     cfg,
		provider:   deps.Provider,
		costs:      deps.Costs,
		history:    store,
		forecaster: forecaster,
		decisions:  decision.NewEngine(cfg.Decision, store, forecaster, deps.Costs),
		executor:   exec,
		publisher:  deps.Publisher,
		collector:  deps.Metrics,
		targets:    make(map[string]*targetEntry),
	}
}

// RegisterTarget validates and adds a target. Targets with no thresholds
// get the defaults; duplicate IDs and invalid bounds are rejected. The
// engine stores its own copy, so the caller's pointer is never touched by
// the control loops.
func (e *Engine) RegisterTarget(target *models.ScalingTarget) error {
	if target == nil {
		return fmt.Errorf("%w: target is nil", ErrValidation)
	}
	if len(target.Thresholds) == 0 {
		target.Thresholds = models.DefaultThresholds()
	}
	if target.Policy == "" {
		target.Policy = models.PolicyReactive
	}
	if err := target.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	e.mu.Lock()
	if _, exists := e.targets[target.ID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("%w: target %q already registered", ErrValidation, target.ID)
	}
	e.targets[target.ID] = &targetEntry{target: target.Clone()}
	count := len(e.targets)
	e.mu.Unlock()

	if e.collector != nil {
		e.collector.SetTargetCount(count)
		e.collector.SetCurrentCount(target.ID, target.CurrentCount)
		e.collector.SetHourlyCost(target.ID, e.costs.HourlyCost(target.ResourceType, target.CurrentCount))
	}
	if e.publisher != nil {
		e.publisher.TargetRegistered(target)
	}

	logger.WithTarget(target.ID).Infof(
		"Target registered: %s (%d %s, bounds [%d, %d], policy %s)",
		target.Name, target.CurrentCount, target.ResourceType,
		target.MinCount, target.MaxCount, target.Policy,
	)
	return nil
}

// Start launches the three control loops. Idempotent.
func (e *Engine) Start() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.running {
		return
	}
	e.running = true

	e.loops = []*controlLoop{
		newControlLoop("monitor", e.config.MonitorInterval, e.monitorTick),
		newControlLoop("predict", e.config.PredictInterval, e.predictTick),
		newControlLoop("cost", e.config.CostInterval, e.costTick),
	}
	for _, l := range e.loops {
		l.start(e.collector)
	}

	logger.Info("Autoscaling engine started")
}

// Stop halts the loops. Each loop is stopped independently; an in-flight
// apply call completes under its own timeout. Idempotent.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if !e.running {
		return
	}
	e.running = false

	for _, l := range e.loops {
		l.stop()
	}
	e.loops = nil

	logger.Info("Autoscaling engine stopped")
}

// Running reports whether the control loops are active.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.running
}

// History exposes the metric store for reporting.
func (e *Engine) History() *history.Store {
	return e.history
}

// Ledger exposes the action ledger for reporting and archiving.
func (e *Engine) Ledger() *executor.Ledger {
	return e.executor.Ledger()
}

func (e *Engine) snapshot() []*targetEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entries := make([]*targetEntry, 0, len(e.targets))
	for _, entry := range e.targets {
		entries = append(entries, entry)
	}
	return entries
}

func (e *Engine) lookup(targetID string) (*targetEntry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.targets[targetID]
	return entry, ok
}
