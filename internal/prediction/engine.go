// Package prediction turns service load patterns into replica
// recommendations ahead of demand.
package prediction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/internal/pattern"
	"github.com/scalemesh/coordinator/pkg/models"
)

// BaselineProvider supplies the per-service runtime configuration the
// engine needs: the current replica count and the utilization target.
// Satisfied by any ReplicaApplier.
type BaselineProvider interface {
	CurrentReplicas(ctx context.Context, service string) (int, error)
	UtilizationTarget(ctx context.Context, service string) (float64, error)
}

type Config struct {
	// DefaultLoad is assumed when no window covers the prediction time.
	DefaultLoad float64
	// LeadTime shifts the window lookup forward so replicas are ready
	// before the window starts.
	LeadTime time.Duration
	// MinConfidenceSamples is the event count at which window confidence
	// saturates at 1.
	MinConfidenceSamples int
}

type Engine struct {
	config    Config
	patterns  *pattern.Store
	baselines BaselineProvider
	events    *eventlog.Log
}

func New(cfg Config, patterns *pattern.Store, baselines BaselineProvider, events *eventlog.Log) *Engine {
	if cfg.DefaultLoad <= 0 || cfg.DefaultLoad > 1 {
		cfg.DefaultLoad = 0.5
	}
	if cfg.MinConfidenceSamples <= 0 {
		cfg.MinConfidenceSamples = 10
	}
	return &Engine{
		config:    cfg,
		patterns:  patterns,
		baselines: baselines,
		events:    events,
	}
}

// Predict looks the service's pattern up in the store and forecasts from
// it. Callers that already hold a per-tick snapshot use PredictFromPattern
// instead, so a concurrent pattern write cannot change mid-tick results.
func (e *Engine) Predict(ctx context.Context, service string, at time.Time) (*models.ScalingPrediction, error) {
	p, err := e.patterns.Get(service)
	if err != nil {
		return nil, err
	}
	return e.PredictFromPattern(ctx, p, at)
}

// PredictFromPattern fetches the service's baseline configuration from the
// collaborator and forecasts from the given pattern.
func (e *Engine) PredictFromPattern(ctx context.Context, p *models.ServiceLoadPattern, at time.Time) (*models.ScalingPrediction, error) {
	baseline, err := e.baselines.CurrentReplicas(ctx, p.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to get baseline replicas for %s: %w", p.Service, err)
	}

	target, err := e.baselines.UtilizationTarget(ctx, p.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to get utilization target for %s: %w", p.Service, err)
	}

	return e.Forecast(p, at, baseline, target)
}

// Forecast computes the replica need at the given time from an already
// resolved baseline. The active window is the one containing (at + lead
// time) modulo the pattern cycle; window boundaries are start-inclusive,
// end-exclusive, so a timestamp exactly on a boundary belongs to the
// window starting there. Without a matching window the configured default
// load applies at zero confidence.
func (e *Engine) Forecast(p *models.ServiceLoadPattern, at time.Time, baseline int, target float64) (*models.ScalingPrediction, error) {
	if target <= 0 || target > 1 {
		return nil, models.NewValidationError("utilization_target",
			"must be within (0,1]")
	}

	cycle := p.CycleLength()
	nowOffset := mod(at.Unix(), cycle)
	lookupOffset := mod(at.Unix()+int64(e.config.LeadTime.Seconds()), cycle)

	expectedLoad := e.config.DefaultLoad
	confidence := 0.0
	var leadSeconds int64

	if w, ok := p.WindowAt(lookupOffset); ok {
		expectedLoad = w.ExpectedLoad
		confidence = e.windowConfidence(p.Service, w, cycle)
		if !w.Contains(nowOffset) {
			leadSeconds = mod(w.StartOffset-nowOffset, cycle)
		}
	}

	recommended := int(math.Ceil(float64(baseline) * expectedLoad / target))
	if recommended < 1 {
		recommended = 1
	}

	prediction := &models.ScalingPrediction{
		Service:             p.Service,
		GeneratedAt:         at,
		ExpectedLoad:        expectedLoad,
		RecommendedReplicas: recommended,
		Confidence:          confidence,
		LeadTimeSeconds:     leadSeconds,
	}

	logger.WithService(p.Service).Debugf(
		"Predicted load=%.2f replicas=%d confidence=%.2f lead=%ds",
		expectedLoad, recommended, confidence, leadSeconds)

	return prediction, nil
}

// windowConfidence grows with the number of retained events whose
// timestamps fall inside the window's offsets, saturating at 1.
func (e *Engine) windowConfidence(service string, w models.TimeWindow, cycle int64) float64 {
	if e.events == nil {
		return 1
	}

	samples := 0
	for _, ev := range e.events.Recent(service, 0) {
		offset := mod(ev.Timestamp.Unix(), cycle)
		if w.Contains(offset) {
			samples++
		}
	}

	c := float64(samples) / float64(e.config.MinConfidenceSamples)
	if c > 1 {
		c = 1
	}
	return c
}

// mod is the least non-negative residue, safe for negative operands.
func mod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
