package events

import (
	"github.com/scalemesh/coordinator/pkg/models"
)

type Publisher struct {
	bus *EventBus
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) PredictionMade(prediction *models.ScalingPrediction) {
	event := models.NewEvent(models.EventTypePredictionMade, prediction.Service,
		"Prediction generated").WithData(prediction)
	p.bus.Publish(event)
}

func (p *Publisher) ReplicasResolved(resolved map[string]int) {
	event := models.NewEvent(models.EventTypeReplicasResolve, "",
		"Replica counts resolved").WithData(resolved)
	p.bus.Publish(event)
}

func (p *Publisher) ApplyStarted(service string, desired int) {
	event := models.NewEvent(models.EventTypeApplyStarted, service,
		"Applying resolved replicas").
		WithData(map[string]interface{}{"desired": desired})
	p.bus.Publish(event)
}

func (p *Publisher) ApplyComplete(scalingEvent *models.ScalingEvent) {
	event := models.NewEvent(models.EventTypeApplyComplete, scalingEvent.Service,
		"Replicas applied").WithData(scalingEvent)
	p.bus.Publish(event)
}

func (p *Publisher) ApplyFailed(scalingEvent *models.ScalingEvent, err error) {
	event := models.NewEvent(models.EventTypeApplyFailed, scalingEvent.Service,
		"Apply failed: "+err.Error()).
		WithSeverity(models.SeverityCritical).
		WithData(scalingEvent)
	p.bus.Publish(event)
}

func (p *Publisher) TickComplete(services, changed int) {
	event := models.NewEvent(models.EventTypeTickComplete, "", "Tick complete").
		WithData(map[string]interface{}{
			"services": services,
			"changed":  changed,
		})
	p.bus.Publish(event)
}

func (p *Publisher) TickSkipped() {
	event := models.NewEvent(models.EventTypeTickSkipped, "",
		"Tick skipped, previous tick still running").
		WithSeverity(models.SeverityWarning)
	p.bus.Publish(event)
}

func (p *Publisher) Error(service, message string, err error) {
	event := models.NewEvent(models.EventTypeError, service, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{"error": err.Error()})
	p.bus.Publish(event)
}
