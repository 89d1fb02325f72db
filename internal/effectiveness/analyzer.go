// Package effectiveness scores past scaling actions: did the action
// reduce saturation without wild over-provisioning?
package effectiveness

import (
	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/pkg/models"
)

type Config struct {
	// EffectiveThreshold is the mean improvement at or above which the
	// verdict is "effective"; its negation bounds "ineffective".
	EffectiveThreshold float64
	// MinSamples below which the verdict is "insufficient_data".
	MinSamples int
}

// Analyzer is read-only and side-effect-free; it is safe to call
// concurrently with the coordinator loop.
type Analyzer struct {
	config Config
	events *eventlog.Log
}

func New(cfg Config, events *eventlog.Log) *Analyzer {
	if cfg.EffectiveThreshold <= 0 {
		cfg.EffectiveThreshold = 0.05
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 1
	}
	return &Analyzer{config: cfg, events: events}
}

// Effectiveness aggregates the retained events of a service that carry
// both outcome samples. Improvement is observed-before minus
// observed-after for a scale-up, and the negation for a scale-down: a good
// scale-down keeps load flat on fewer replicas instead of dropping it.
// Failed events changed nothing and are excluded.
func (a *Analyzer) Effectiveness(service string) *models.EffectivenessReport {
	report := &models.EffectivenessReport{
		Service: service,
		Verdict: models.VerdictInsufficientData,
	}

	var sum float64
	for _, e := range a.events.Recent(service, 0) {
		if e.Failed || !e.HasOutcome() {
			continue
		}
		if e.NewReplicas == e.PreviousReplicas {
			continue
		}

		improvement := *e.ObservedLoadBefore - *e.ObservedLoadAfter
		if e.NewReplicas < e.PreviousReplicas {
			improvement = -improvement
		}

		sum += improvement
		report.SampleCount++
	}

	if report.SampleCount < a.config.MinSamples {
		return report
	}

	report.MeanImprovement = sum / float64(report.SampleCount)
	switch {
	case report.MeanImprovement >= a.config.EffectiveThreshold:
		report.Verdict = models.VerdictEffective
	case report.MeanImprovement <= -a.config.EffectiveThreshold:
		report.Verdict = models.VerdictIneffective
	default:
		report.Verdict = models.VerdictNeutral
	}
	return report
}
