package scaler

import (
	"context"
	"errors"

	"github.com/openfleet/autoscaler/pkg/models"
)

var (
	ErrApplyFailed    = errors.New("scaling apply failed")
	ErrInvalidCount   = errors.New("invalid target count")
	ErrTargetUnknown  = errors.New("target not known to scaler")
	ErrApplyTimeout   = errors.New("scaling apply timeout")
)

// ResourceScaler performs the real capacity change: a cloud API, container
// orchestrator, or process pool. Implementations are assumed idempotent
// enough that re-applying the same count is safe.
type ResourceScaler interface {
	// Apply changes the target's real capacity to newCount.
	Apply(ctx context.Context, target *models.ScalingTarget, newCount int) (bool, error)

	// Close releases resources
	Close() error
}
