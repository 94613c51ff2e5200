package provider

import (
	"context"
	"errors"

	"github.com/openfleet/autoscaler/pkg/models"
)

var (
	ErrFetchFailed     = errors.New("metric fetch failed")
	ErrFetchTimeout    = errors.New("metric fetch timeout")
	ErrTargetUnknown   = errors.New("target not known to provider")
	ErrInvalidResponse = errors.New("invalid response from metrics backend")
)

// MetricsProvider samples current utilization for a target. A failed fetch
// means the target is simply not sampled this tick; values are never
// backfilled.
type MetricsProvider interface {
	// Fetch returns one current value per supported metric for a target.
	Fetch(ctx context.Context, target *models.ScalingTarget) (map[models.ResourceMetric]float64, error)

	// HealthCheck verifies the provider can reach its backend
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the provider
	Close() error
}
