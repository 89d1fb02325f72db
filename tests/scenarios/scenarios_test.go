package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/scalemesh/coordinator/internal/applier"
	"github.com/scalemesh/coordinator/internal/coordinator"
	"github.com/scalemesh/coordinator/internal/dependency"
	"github.com/scalemesh/coordinator/internal/effectiveness"
	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/internal/events"
	"github.com/scalemesh/coordinator/internal/metrics"
	"github.com/scalemesh/coordinator/internal/pattern"
	"github.com/scalemesh/coordinator/internal/prediction"
	"github.com/scalemesh/coordinator/pkg/models"
)

// harness wires the full pipeline the way cmd/coordinator does, with the
// simulator standing in for the scaling collaborator.
type harness struct {
	patterns *pattern.Store
	deps     *dependency.Store
	eventLog *eventlog.Log
	sim      *applier.SimulatorApplier
	analyzer *effectiveness.Analyzer
	loop     *coordinator.Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	patterns := pattern.NewStore(nil)
	deps := dependency.NewStore(nil)
	eventLog := eventlog.NewLog(100, nil)
	sim := applier.NewSimulatorApplier(applier.SimulatorConfig{})
	engine := prediction.New(prediction.Config{}, patterns, sim, eventLog)
	analyzer := effectiveness.New(effectiveness.Config{MinSamples: 1}, eventLog)

	bus := events.NewEventBus(100)
	t.Cleanup(bus.Close)

	loop := coordinator.New(
		coordinator.Config{TickInterval: time.Hour, ApplyTimeout: time.Second},
		patterns, deps, eventLog, engine, sim,
		events.NewPublisher(bus), metrics.New())

	return &harness{
		patterns: patterns,
		deps:     deps,
		eventLog: eventLog,
		sim:      sim,
		analyzer: analyzer,
		loop:     loop,
	}
}

func fullDayPattern(service string, load float64) *models.ServiceLoadPattern {
	return &models.ServiceLoadPattern{
		Service:     service,
		PatternType: "daily",
		TimeWindows: []models.TimeWindow{
			{StartOffset: 0, EndOffset: models.CycleDaily, ExpectedLoad: load},
		},
	}
}

// A frontend, its cache, and a worker pool: the frontend scales on its
// own pattern, the cache follows at half ratio, and the worker pool has a
// fixed floor. One tick should bring the whole chain into line.
func TestScenario_DependencyChainConverges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.patterns.Upsert(ctx, fullDayPattern("frontend", 0.9)); err != nil {
		t.Fatalf("upsert pattern: %v", err)
	}
	h.sim.InitializeService("frontend", 4, 0.6)
	h.sim.InitializeService("cache", 1, 0.6)
	h.sim.InitializeService("worker", 1, 0.6)

	if err := h.deps.Upsert(ctx, &models.ScalingDependency{
		Source:     "frontend",
		Target:     "cache",
		Constraint: models.Proportional(0.5),
		Enabled:    true,
	}); err != nil {
		t.Fatalf("upsert dependency: %v", err)
	}
	if err := h.deps.Upsert(ctx, &models.ScalingDependency{
		Source:     "frontend",
		Target:     "worker",
		Constraint: models.MinimumReplicas(3),
		Enabled:    true,
	}); err != nil {
		t.Fatalf("upsert dependency: %v", err)
	}

	h.loop.TickNow()

	// ceil(4 * 0.9 / 0.6) = 6 for the frontend, half of that for the
	// cache, and the worker floor.
	want := map[string]int{"frontend": 6, "cache": 3, "worker": 3}
	for service, replicas := range want {
		got, err := h.sim.CurrentReplicas(ctx, service)
		if err != nil {
			t.Fatalf("%s replicas: %v", service, err)
		}
		if got != replicas {
			t.Errorf("%s: want %d replicas, got %d", service, replicas, got)
		}
	}

	cacheEvents := h.eventLog.Recent("cache", 0)
	if len(cacheEvents) != 1 {
		t.Fatalf("want 1 cache event, got %d", len(cacheEvents))
	}
	if cacheEvents[0].Trigger != models.TriggerDependency {
		t.Errorf("cache scaled by %s, want %s",
			cacheEvents[0].Trigger, models.TriggerDependency)
	}
}

// Scale up, observe the load drop, record the outcome, and check the
// verdict reflects a win.
func TestScenario_OutcomeFeedsEffectiveness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.patterns.Upsert(ctx, fullDayPattern("api", 1.0)); err != nil {
		t.Fatalf("upsert pattern: %v", err)
	}
	h.sim.InitializeService("api", 2, 0.5)

	h.loop.TickNow()

	if err := h.eventLog.RecordLatestOutcome(ctx, "api", 0.95, 0.55); err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	report := h.analyzer.Effectiveness("api")
	if report.Verdict != models.VerdictEffective {
		t.Errorf("want %s, got %s (mean %.3f over %d samples)",
			models.VerdictEffective, report.Verdict,
			report.MeanImprovement, report.SampleCount)
	}
	if report.SampleCount != 1 {
		t.Errorf("want 1 sample, got %d", report.SampleCount)
	}
}

// A disabled dependency must not pull the target up; re-enabling it takes
// effect on the next tick.
func TestScenario_DisabledDependencyIgnoredUntilEnabled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.patterns.Upsert(ctx, fullDayPattern("api", 1.0)); err != nil {
		t.Fatalf("upsert pattern: %v", err)
	}
	h.sim.InitializeService("api", 2, 0.5)
	h.sim.InitializeService("cache", 1, 0.5)

	if err := h.deps.Upsert(ctx, &models.ScalingDependency{
		Source:     "api",
		Target:     "cache",
		Constraint: models.FixedReplicas(4),
		Enabled:    false,
	}); err != nil {
		t.Fatalf("upsert dependency: %v", err)
	}

	h.loop.TickNow()

	got, _ := h.sim.CurrentReplicas(ctx, "cache")
	if got != 1 {
		t.Errorf("disabled dependency moved cache to %d replicas", got)
	}

	if err := h.deps.SetEnabled(ctx, "api", "cache", true); err != nil {
		t.Fatalf("enable dependency: %v", err)
	}
	h.loop.TickNow()

	got, _ = h.sim.CurrentReplicas(ctx, "cache")
	if got != 4 {
		t.Errorf("enabled dependency: want 4 cache replicas, got %d", got)
	}
}

// A failing collaborator for one service must not stall the rest of the
// fleet, and healing the service lets the next tick catch it up.
func TestScenario_FailureThenRecovery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.patterns.Upsert(ctx, fullDayPattern("api", 1.0)); err != nil {
		t.Fatalf("upsert pattern: %v", err)
	}
	if err := h.patterns.Upsert(ctx, fullDayPattern("worker", 1.0)); err != nil {
		t.Fatalf("upsert pattern: %v", err)
	}
	h.sim.InitializeService("api", 2, 0.5)
	h.sim.InitializeService("worker", 2, 0.5)

	h.sim.FailService("api", context.DeadlineExceeded)
	h.loop.TickNow()

	if got, _ := h.sim.CurrentReplicas(ctx, "worker"); got != 4 {
		t.Errorf("healthy service: want 4 replicas, got %d", got)
	}
	if got, _ := h.sim.CurrentReplicas(ctx, "api"); got != 2 {
		t.Errorf("failed service should stay at 2, got %d", got)
	}

	apiEvents := h.eventLog.Recent("api", 0)
	if len(apiEvents) != 1 || !apiEvents[0].Failed {
		t.Fatalf("want one failed event for api, got %+v", apiEvents)
	}

	h.sim.FailService("api", nil)
	h.loop.TickNow()

	if got, _ := h.sim.CurrentReplicas(ctx, "api"); got != 4 {
		t.Errorf("recovered service: want 4 replicas, got %d", got)
	}
}
