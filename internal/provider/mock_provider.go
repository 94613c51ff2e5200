package provider

import (
	"context"
	"math/rand"
	"sync"

	"github.com/openfleet/autoscaler/pkg/models"
)

// MockProvider serves configurable metric values, with optional jitter and
// failure injection. Used by tests and the simulator binary.
type MockProvider struct {
	mu           sync.Mutex
	values       map[string]map[models.ResourceMetric]float64
	variance     float64
	shouldFail   bool
	failureError error
}

type MockProviderConfig struct {
	Variance float64
}

func NewMockProvider(cfg MockProviderConfig) *MockProvider {
	return &MockProvider{
		values:   make(map[string]map[models.ResourceMetric]float64),
		variance: cfg.Variance,
	}
}

// SetValue fixes the base value served for a target's metric.
func (p *MockProvider) SetValue(targetID string, metric models.ResourceMetric, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values[targetID] == nil {
		p.values[targetID] = make(map[models.ResourceMetric]float64)
	}
	p.values[targetID][metric] = value
}

func (p *MockProvider) SetShouldFail(shouldFail bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shouldFail = shouldFail
	p.failureError = err
}

func (p *MockProvider) Fetch(ctx context.Context, target *models.ScalingTarget) (map[models.ResourceMetric]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shouldFail {
		if p.failureError != nil {
			return nil, p.failureError
		}
		return nil, ErrFetchFailed
	}

	base, ok := p.values[target.ID]
	if !ok {
		return nil, ErrTargetUnknown
	}

	out := make(map[models.ResourceMetric]float64, len(base))
	for metric, value := range base {
		out[metric] = p.jitter(value)
	}
	return out, nil
}

func (p *MockProvider) jitter(base float64) float64 {
	if p.variance == 0 {
		return base
	}
	value := base + (rand.Float64()*2-1)*p.variance
	if value < 0 {
		value = 0
	}
	return value
}

func (p *MockProvider) HealthCheck(ctx context.Context) error {
	if p.shouldFail {
		return ErrFetchFailed
	}
	return nil
}

func (p *MockProvider) Close() error {
	return nil
}
