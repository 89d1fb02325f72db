package websocket

import (
	"encoding/json"
	"time"

	"github.com/scalemesh/coordinator/pkg/models"
)

type MessageType string

const (
	MessageTypePrediction     MessageType = "prediction"
	MessageTypeScalingStarted MessageType = "scaling_started"
	MessageTypeScalingEvent   MessageType = "scaling_event"
	MessageTypeScalingFailed  MessageType = "scaling_failed"
	MessageTypeTick           MessageType = "tick"
	MessageTypeAlert          MessageType = "alert"
	MessageTypeError          MessageType = "error"
)

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	Service   string      `json:"service,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

func NewMessage(msgType MessageType, service string, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		Service:   service,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (m *OutgoingMessage) JSON() []byte {
	data, _ := json.Marshal(m)
	return data
}

type PredictionData struct {
	ExpectedLoad        float64 `json:"expected_load"`
	RecommendedReplicas int     `json:"recommended_replicas"`
	Confidence          float64 `json:"confidence"`
	LeadTimeSeconds     int64   `json:"lead_time_seconds"`
}

func newPredictionData(p *models.ScalingPrediction) PredictionData {
	return PredictionData{
		ExpectedLoad:        p.ExpectedLoad,
		RecommendedReplicas: p.RecommendedReplicas,
		Confidence:          p.Confidence,
		LeadTimeSeconds:     p.LeadTimeSeconds,
	}
}

type ScalingEventData struct {
	Trigger          string `json:"trigger"`
	PreviousReplicas int    `json:"previous_replicas"`
	NewReplicas      int    `json:"new_replicas"`
	Failed           bool   `json:"failed"`
	FailureReason    string `json:"failure_reason,omitempty"`
}

func newScalingEventData(e *models.ScalingEvent) ScalingEventData {
	return ScalingEventData{
		Trigger:          string(e.Trigger),
		PreviousReplicas: e.PreviousReplicas,
		NewReplicas:      e.NewReplicas,
		Failed:           e.Failed,
		FailureReason:    e.FailureReason,
	}
}

type AlertData struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}
