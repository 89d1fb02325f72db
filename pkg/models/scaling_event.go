package models

import "time"

type ScalingTrigger string

const (
	TriggerPrediction     ScalingTrigger = "prediction"
	TriggerDependency     ScalingTrigger = "dependency"
	TriggerManual         ScalingTrigger = "manual"
	TriggerReactiveMetric ScalingTrigger = "reactive-metric"
)

// ScalingEvent records one observed scaling action for a service. The
// observed load samples arrive asynchronously once outcome data exists.
type ScalingEvent struct {
	ID                 string         `json:"id"`
	Service            string         `json:"service"`
	Timestamp          time.Time      `json:"timestamp"`
	PreviousReplicas   int            `json:"previous_replicas"`
	NewReplicas        int            `json:"new_replicas"`
	Trigger            ScalingTrigger `json:"trigger"`
	ObservedLoadBefore *float64       `json:"observed_load_before,omitempty"`
	ObservedLoadAfter  *float64       `json:"observed_load_after,omitempty"`
	Failed             bool           `json:"failed,omitempty"`
	FailureReason      string         `json:"failure_reason,omitempty"`
}

func NewScalingEvent(service string, previous, next int, trigger ScalingTrigger) *ScalingEvent {
	return &ScalingEvent{
		ID:               NewUUID(),
		Service:          service,
		Timestamp:        time.Now().UTC(),
		PreviousReplicas: previous,
		NewReplicas:      next,
		Trigger:          trigger,
	}
}

func (e *ScalingEvent) MarkFailed(reason string) *ScalingEvent {
	e.Failed = true
	e.FailureReason = reason
	return e
}

// HasOutcome reports whether both load samples have been recorded.
func (e *ScalingEvent) HasOutcome() bool {
	return e.ObservedLoadBefore != nil && e.ObservedLoadAfter != nil
}

// Clone returns a copy safe to hand out to readers.
func (e *ScalingEvent) Clone() *ScalingEvent {
	cp := *e
	if e.ObservedLoadBefore != nil {
		v := *e.ObservedLoadBefore
		cp.ObservedLoadBefore = &v
	}
	if e.ObservedLoadAfter != nil {
		v := *e.ObservedLoadAfter
		cp.ObservedLoadAfter = &v
	}
	return &cp
}
