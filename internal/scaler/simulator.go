package scaler

import (
	"context"
	"sync"
	"time"

	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/pkg/models"
)

// Simulator is an in-memory scaler for tests and the demo binary. It
// tracks applied counts per target and can simulate apply latency and
// injected failures.
type Simulator struct {
	mu         sync.Mutex
	counts     map[string]int
	applyDelay time.Duration
	failNext   error
}

type SimulatorConfig struct {
	ApplyDelay time.Duration
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	return &Simulator{
		counts:     make(map[string]int),
		applyDelay: cfg.ApplyDelay,
	}
}

// FailNext makes the next Apply return the given error.
func (s *Simulator) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *Simulator) Apply(ctx context.Context, target *models.ScalingTarget, newCount int) (bool, error) {
	if newCount < 1 {
		return false, ErrInvalidCount
	}

	s.mu.Lock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	if s.applyDelay > 0 {
		select {
		case <-ctx.Done():
			return false, ErrApplyTimeout
		case <-time.After(s.applyDelay):
		}
	}

	s.mu.Lock()
	s.counts[target.ID] = newCount
	s.mu.Unlock()

	logger.WithTarget(target.ID).Infof("Simulated apply: %d %s", newCount, target.ResourceType)
	return true, nil
}

// AppliedCount returns the last count applied for a target.
func (s *Simulator) AppliedCount(targetID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, ok := s.counts[targetID]
	return count, ok
}

func (s *Simulator) Close() error {
	return nil
}
