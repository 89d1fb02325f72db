package websocket

import (
	"context"

	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/pkg/models"
)

// EventBridge drains coordinator events into WebSocket broadcasts.
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

func (b *EventBridge) forwardEvent(event *models.Event) {
	msg := convertEvent(event)
	if msg == nil {
		return
	}
	b.send(event.Service, msg.JSON())
}

func (b *EventBridge) send(service string, payload []byte) {
	if service == "" {
		b.hub.Broadcast(payload)
		return
	}
	b.hub.BroadcastToService(service, payload)
}

// convertEvent reshapes a bus event into the client wire format. Internal
// events like replicas_resolved and tick_skipped return nil and are not
// broadcast.
func convertEvent(event *models.Event) *OutgoingMessage {
	switch event.Type {
	case models.EventTypePredictionMade:
		if p, ok := event.Data.(*models.ScalingPrediction); ok {
			return NewMessage(MessageTypePrediction, event.Service, newPredictionData(p))
		}
	case models.EventTypeApplyStarted:
		return NewMessage(MessageTypeScalingStarted, event.Service, event.Data)
	case models.EventTypeApplyComplete:
		if e, ok := event.Data.(*models.ScalingEvent); ok {
			return NewMessage(MessageTypeScalingEvent, event.Service, newScalingEventData(e))
		}
	case models.EventTypeApplyFailed:
		if e, ok := event.Data.(*models.ScalingEvent); ok {
			return NewMessage(MessageTypeScalingFailed, event.Service, newScalingEventData(e))
		}
	case models.EventTypeTickComplete:
		return NewMessage(MessageTypeTick, "", event.Data)
	case models.EventTypeAlert:
		return NewMessage(MessageTypeAlert, event.Service, AlertData{
			Severity: string(event.Severity),
			Message:  event.Message,
		})
	case models.EventTypeError:
		return NewMessage(MessageTypeError, event.Service, AlertData{
			Severity: string(event.Severity),
			Message:  event.Message,
		})
	}
	return nil
}
