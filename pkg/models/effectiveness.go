package models

type Verdict string

const (
	VerdictEffective        Verdict = "effective"
	VerdictNeutral          Verdict = "neutral"
	VerdictIneffective      Verdict = "ineffective"
	VerdictInsufficientData Verdict = "insufficient_data"
)

// EffectivenessReport scores how well past scaling actions for a service
// reduced saturation. MeanImprovement is meaningful only when SampleCount
// is above the analyzer's minimum.
type EffectivenessReport struct {
	Service         string  `json:"service"`
	SampleCount     int     `json:"sample_count"`
	MeanImprovement float64 `json:"mean_improvement"`
	Verdict         Verdict `json:"verdict"`
}
