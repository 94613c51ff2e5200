package provider

import (
	"context"
	"time"

	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/internal/resilience"
	"github.com/openfleet/autoscaler/pkg/models"
)

// ResilientProvider wraps another provider with retries and a circuit
// breaker. When the circuit is open, fetches fail fast and the affected
// targets are skipped for the tick.
type ResilientProvider struct {
	provider       MetricsProvider
	circuitBreaker *resilience.CircuitBreaker
	retryAttempts  int
	retryDelay     time.Duration
}

type ResilientProviderConfig struct {
	Provider      MetricsProvider
	MaxFailures   int
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientProvider(cfg ResilientProviderConfig) *ResilientProvider {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          "metrics-provider",
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientProvider{
		provider:       cfg.Provider,
		circuitBreaker: cb,
		retryAttempts:  cfg.RetryAttempts,
		retryDelay:     cfg.RetryDelay,
	}
}

func (p *ResilientProvider) Fetch(ctx context.Context, target *models.ScalingTarget) (map[models.ResourceMetric]float64, error) {
	var values map[models.ResourceMetric]float64
	var lastErr error

	err := p.circuitBreaker.Execute(func() error {
		for attempt := 1; attempt <= p.retryAttempts; attempt++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var err error
			values, err = p.provider.Fetch(ctx, target)
			if err == nil {
				return nil
			}

			lastErr = err
			logger.WithTarget(target.ID).Warnf(
				"Fetch attempt %d/%d failed: %v",
				attempt, p.retryAttempts, err,
			)

			if attempt < p.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.retryDelay):
				}
			}
		}
		return lastErr
	})
	if err != nil {
		return nil, err
	}

	return values, nil
}

func (p *ResilientProvider) HealthCheck(ctx context.Context) error {
	return p.provider.HealthCheck(ctx)
}

func (p *ResilientProvider) Close() error {
	return p.provider.Close()
}

func (p *ResilientProvider) CircuitState() resilience.State {
	return p.circuitBreaker.State()
}
