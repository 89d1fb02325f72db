package models

import "time"

// ScalingPrediction is the per-tick forecast for one service. It is
// ephemeral: produced each coordinator tick and retained only until
// superseded.
type ScalingPrediction struct {
	Service             string    `json:"service"`
	GeneratedAt         time.Time `json:"generated_at"`
	ExpectedLoad        float64   `json:"expected_load"`
	RecommendedReplicas int       `json:"recommended_replicas"`
	Confidence          float64   `json:"confidence"`
	LeadTimeSeconds     int64     `json:"lead_time_seconds"`
}

func (p *ScalingPrediction) IsHighConfidence(threshold float64) bool {
	return p.Confidence >= threshold
}
