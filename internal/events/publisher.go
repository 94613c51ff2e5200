package events

import (
	"github.com/openfleet/autoscaler/pkg/models"
)

type Publisher struct {
	bus *EventBus
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) TargetRegistered(target *models.ScalingTarget) {
	event := models.NewEvent(models.EventTypeTargetRegistered, target.ID, "Target registered").
		WithData(target)
	p.bus.Publish(event)
}

func (p *Publisher) DecisionMade(decision *models.ScalingDecision) {
	msg := "Scaling decision: " + string(decision.Direction)
	event := models.NewEvent(models.EventTypeDecisionMade, decision.TargetID, msg).
		WithData(decision)
	p.bus.Publish(event)
}

func (p *Publisher) ScalingExecuted(action *models.ScalingAction) {
	msg := "Scaling executed: " + string(action.Direction)
	event := models.NewEvent(models.EventTypeScalingExecuted, action.TargetID, msg).
		WithData(action)
	p.bus.Publish(event)
}

func (p *Publisher) ScalingFailed(action *models.ScalingAction) {
	event := models.NewEvent(models.EventTypeScalingFailed, action.TargetID, "Scaling failed: "+action.Reason).
		WithSeverity(models.SeverityCritical).
		WithData(action)
	p.bus.Publish(event)
}

func (p *Publisher) Alert(targetID string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, targetID, message).
		WithSeverity(severity).
		WithData(data)
	p.bus.Publish(event)
}

func (p *Publisher) Error(targetID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, targetID, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.bus.Publish(event)
}
