package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openfleet/autoscaler/internal/logger"
	"github.com/openfleet/autoscaler/pkg/models"
)

// EventBridge forwards engine events to WebSocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			b.forwardEvent(event)
		}
	}
}

// WebSocketEvent is the message format sent to connected clients.
type WebSocketEvent struct {
	Type      string      `json:"type"`
	TargetID  string      `json:"target_id"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func (b *EventBridge) forwardEvent(event *models.Event) {
	wsType := mapEventType(event.Type)
	if wsType == "" {
		return
	}

	message := &WebSocketEvent{
		Type:      wsType,
		TargetID:  event.TargetID,
		Timestamp: event.Timestamp,
		Severity:  string(event.Severity),
		Message:   event.Message,
		Data:      event.Data,
	}

	data, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	b.hub.BroadcastToTarget(event.TargetID, data)
}

func mapEventType(eventType models.EventType) string {
	switch eventType {
	case models.EventTypeTargetRegistered:
		return "target_registered"
	case models.EventTypeDecisionMade:
		return "decision"
	case models.EventTypeScalingExecuted:
		return "scaling_action"
	case models.EventTypeScalingFailed:
		return "scaling_failed"
	case models.EventTypeAlert:
		return "alert"
	case models.EventTypeError:
		return "error"
	default:
		return ""
	}
}
