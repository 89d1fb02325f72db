// Package coordinator runs the periodic scaling loop: predict every
// service's replica need, propagate the counts across the dependency
// graph, hand the result to the apply collaborator, and record what
// happened. It is the sole writer of predictions and scaling events.
package coordinator

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scalemesh/coordinator/internal/applier"
	"github.com/scalemesh/coordinator/internal/dependency"
	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/internal/events"
	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/internal/metrics"
	"github.com/scalemesh/coordinator/internal/pattern"
	"github.com/scalemesh/coordinator/internal/prediction"
	"github.com/scalemesh/coordinator/internal/resolver"
	"github.com/scalemesh/coordinator/pkg/models"
)

// Tick phases, observable through /metrics and the health endpoint.
const (
	StateIdle       = "idle"
	StatePredicting = "predicting"
	StateResolving  = "resolving"
	StateApplying   = "applying"
	StateLogging    = "logging"
)

type Config struct {
	TickInterval time.Duration
	ApplyTimeout time.Duration
}

type Coordinator struct {
	config    Config
	patterns  *pattern.Store
	deps      *dependency.Store
	eventLog  *eventlog.Log
	engine    *prediction.Engine
	applier   applier.ReplicaApplier
	publisher *events.Publisher
	metrics   *metrics.Metrics

	predMu      sync.RWMutex
	predictions map[string]*models.ScalingPrediction

	tickInFlight atomic.Bool
	running      bool
	mu           sync.Mutex
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func New(cfg Config, patterns *pattern.Store, deps *dependency.Store,
	eventLog *eventlog.Log, engine *prediction.Engine,
	app applier.ReplicaApplier, publisher *events.Publisher,
	m *metrics.Metrics) *Coordinator {

	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if cfg.ApplyTimeout <= 0 || cfg.ApplyTimeout > cfg.TickInterval {
		cfg.ApplyTimeout = cfg.TickInterval / 3
	}

	return &Coordinator{
		config:      cfg,
		patterns:    patterns,
		deps:        deps,
		eventLog:    eventLog,
		engine:      engine,
		applier:     app,
		publisher:   publisher,
		metrics:     m,
		predictions: make(map[string]*models.ScalingPrediction),
	}
}

func (c *Coordinator) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true

	c.wg.Add(1)
	go c.run(ctx)

	logger.Infof("Coordinator loop started, tick interval %s", c.config.TickInterval)
	return nil
}

// Stop signals the loop to halt and waits for an in-flight tick to finish.
// A tick is never aborted mid-resolve: a partial resolve is wrong data.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	logger.Info("Coordinator loop stopped")
}

func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	// Run immediately on start
	c.tick(time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.tick(now)
		}
	}
}

// tick runs one full cycle. If the previous tick is still in flight when
// the next one is due, the new tick is skipped, not queued.
func (c *Coordinator) tick(now time.Time) {
	if !c.tickInFlight.CompareAndSwap(false, true) {
		c.metrics.IncSkippedTick()
		c.publisher.TickSkipped()
		logger.Warn("Tick skipped, previous tick still running")
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.tickInFlight.Store(false)
		c.runTick(now)
	}()
}

func (c *Coordinator) runTick(now time.Time) {
	defer c.setState(StateIdle)

	// The tick works off one snapshot of patterns and dependencies;
	// writes landing during the tick become visible next tick.
	c.setState(StatePredicting)
	patterns := c.patterns.List()
	depEdges := c.deps.ListAll()

	predictions := make(map[string]*models.ScalingPrediction, len(patterns))
	currentReplicas := make(map[string]int, len(patterns))
	input := make(map[string]int, len(patterns))

	for _, p := range patterns {
		current, target, err := c.baseline(p.Service)
		if err != nil {
			logger.WithService(p.Service).Errorf("Baseline lookup failed: %v", err)
			c.publisher.Error(p.Service, "Baseline lookup failed", err)
			continue
		}

		pred, err := c.engine.Forecast(p, now, current, target)
		if err != nil {
			logger.WithService(p.Service).Errorf("Prediction failed: %v", err)
			c.publisher.Error(p.Service, "Prediction failed", err)
			continue
		}

		predictions[p.Service] = pred
		currentReplicas[p.Service] = current
		input[p.Service] = pred.RecommendedReplicas
		c.metrics.IncPrediction(p.Service)
		c.publisher.PredictionMade(pred)
	}

	c.setPredictions(predictions)

	c.setState(StateResolving)
	resolved, err := resolver.ResolveWithEdges(depEdges, input)
	if err != nil {
		// Affected services already fell back to their prediction-only
		// values inside the resolver.
		c.metrics.IncResolveAbort()
		c.publisher.Error("", "Dependency resolution aborted for a component", err)
	}
	c.publisher.ReplicasResolved(resolved)

	c.setState(StateApplying)
	scalingEvents := c.apply(resolved, predictions, currentReplicas)

	c.setState(StateLogging)
	for _, ev := range scalingEvents {
		logCtx, cancel := context.WithTimeout(context.Background(), c.config.ApplyTimeout)
		if err := c.eventLog.Append(logCtx, ev); err != nil {
			logger.WithService(ev.Service).Errorf("Failed to log scaling event: %v", err)
		}
		cancel()
		c.metrics.IncScalingEvent(ev.Service, string(ev.Trigger))
	}

	c.metrics.IncTick()
	c.publisher.TickComplete(len(predictions), len(scalingEvents))
}

// apply pushes every changed replica count to the collaborator. One
// service's failure never blocks the others; the attempted value is still
// recorded with a failure flag.
func (c *Coordinator) apply(resolved map[string]int,
	predictions map[string]*models.ScalingPrediction,
	currentReplicas map[string]int) []*models.ScalingEvent {

	services := make([]string, 0, len(resolved))
	for s := range resolved {
		services = append(services, s)
	}
	sort.Strings(services)

	var scalingEvents []*models.ScalingEvent
	for _, service := range services {
		desired := resolved[service]

		previous, ok := currentReplicas[service]
		if !ok {
			// Pure dependency target without its own pattern.
			cur, _, err := c.baseline(service)
			if err != nil {
				logger.WithService(service).Errorf("Baseline lookup failed: %v", err)
				c.publisher.Error(service, "Baseline lookup failed", err)
				continue
			}
			previous = cur
		}

		if desired == previous {
			c.metrics.SetResolvedReplicas(service, desired)
			continue
		}

		trigger := models.TriggerPrediction
		if pred, ok := predictions[service]; !ok || desired > pred.RecommendedReplicas {
			trigger = models.TriggerDependency
		}

		ev := models.NewScalingEvent(service, previous, desired, trigger)
		c.publisher.ApplyStarted(service, desired)

		applyCtx, cancel := context.WithTimeout(context.Background(), c.config.ApplyTimeout)
		err := c.applier.ApplyReplicas(applyCtx, service, desired)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = models.ErrApplyTimeout
			}
			ev.MarkFailed(err.Error())
			c.metrics.IncApplyFailure(service)
			c.publisher.ApplyFailed(ev, err)
			logger.WithService(service).Errorf("Apply failed: %v", err)
		} else {
			c.metrics.SetResolvedReplicas(service, desired)
			c.publisher.ApplyComplete(ev)
			logger.WithService(service).Infof("Scaled %d -> %d replicas (%s)",
				previous, desired, trigger)
		}

		scalingEvents = append(scalingEvents, ev)
	}
	return scalingEvents
}

func (c *Coordinator) baseline(service string) (int, float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.ApplyTimeout)
	defer cancel()

	current, err := c.applier.CurrentReplicas(ctx, service)
	if err != nil {
		return 0, 0, err
	}
	target, err := c.applier.UtilizationTarget(ctx, service)
	if err != nil {
		return 0, 0, err
	}
	return current, target, nil
}

func (c *Coordinator) setState(state string) {
	c.metrics.SetLoopState(state)
}

func (c *Coordinator) setPredictions(p map[string]*models.ScalingPrediction) {
	c.predMu.Lock()
	defer c.predMu.Unlock()
	c.predictions = p
}

// Predictions returns the latest tick's predictions, ordered by service.
func (c *Coordinator) Predictions() []*models.ScalingPrediction {
	c.predMu.RLock()
	defer c.predMu.RUnlock()

	out := make([]*models.ScalingPrediction, 0, len(c.predictions))
	for _, p := range c.predictions {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// TickNow runs a single tick synchronously, outside the schedule. Used by
// the development harness and tests.
func (c *Coordinator) TickNow() {
	if !c.tickInFlight.CompareAndSwap(false, true) {
		c.metrics.IncSkippedTick()
		c.publisher.TickSkipped()
		return
	}
	defer c.tickInFlight.Store(false)
	c.runTick(time.Now())
}
