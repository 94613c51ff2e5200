package executor

import (
	"sync"
	"time"

	"github.com/openfleet/autoscaler/pkg/models"
)

// defaultLedgerCap bounds the in-memory ledger; reporting only ever reads
// the trailing hour, so old entries can be dropped.
const defaultLedgerCap = 10000

// Ledger is the append-only record of executed decisions, successful or
// not. It is the source of truth for the recent-actions reporting window.
type Ledger struct {
	mu      sync.RWMutex
	actions []*models.ScalingAction
	cap     int
}

func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = defaultLedgerCap
	}
	return &Ledger{cap: capacity}
}

func (l *Ledger) Append(action *models.ScalingAction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.actions = append(l.actions, action)
	if len(l.actions) > l.cap {
		l.actions = l.actions[len(l.actions)-l.cap:]
	}
}

// Since returns actions newer than the given time, oldest first.
func (l *Ledger) Since(cutoff time.Time) []*models.ScalingAction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*models.ScalingAction
	for _, a := range l.actions {
		if a.Timestamp.After(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// ForTarget returns up to limit most recent actions for a target,
// newest first.
func (l *Ledger) ForTarget(targetID string, limit int) []*models.ScalingAction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*models.ScalingAction
	for i := len(l.actions) - 1; i >= 0 && len(out) < limit; i-- {
		if l.actions[i].TargetID == targetID {
			out = append(out, l.actions[i])
		}
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.actions)
}
