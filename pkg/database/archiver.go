package database

import (
	"context"
	"sync"
	"time"

	"github.com/openfleet/autoscaler/internal/events"
	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/pkg/database/queries"
	"github.com/openfleet/autoscaler/pkg/models"
)

const archiveInsertTimeout = 5 * time.Second

// Archiver drains scaling events off the bus and persists the embedded
// actions. Failed inserts are logged and dropped; archiving never blocks
// the control loops.
type Archiver struct {
	actions *queries.ActionRepository

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewArchiver(db *DB) *Archiver {
	return &Archiver{actions: queries.NewActionRepository(db.DB)}
}

// Start subscribes to executed and failed scaling events and persists
// them until Stop is called.
func (a *Archiver) Start(bus *events.EventBus) {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	executed := bus.Subscribe(models.EventTypeScalingExecuted)
	failed := bus.Subscribe(models.EventTypeScalingFailed)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-executed:
				if !ok {
					return
				}
				a.archive(event)
			case event, ok := <-failed:
				if !ok {
					return
				}
				a.archive(event)
			}
		}
	}()
}

func (a *Archiver) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
}

func (a *Archiver) archive(event *models.Event) {
	action, ok := event.Data.(*models.ScalingAction)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveInsertTimeout)
	defer cancel()

	if err := a.actions.Insert(ctx, action); err != nil {
		logger.WithTarget(action.TargetID).Errorf("Failed to archive scaling action %s: %v", action.ID, err)
	}
}
