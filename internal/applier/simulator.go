package applier

import (
	"context"
	"sync"
	"time"

	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/pkg/models"
)

const defaultUtilizationTarget = 0.5

// SimulatorApplier is an in-process apply collaborator for development and
// tests. Apply latency and per-service failures are injectable.
type SimulatorApplier struct {
	mu           sync.Mutex
	replicas     map[string]int
	targets      map[string]float64
	applyLatency time.Duration
	failures     map[string]error
}

type SimulatorConfig struct {
	ApplyLatency time.Duration
}

func NewSimulatorApplier(cfg SimulatorConfig) *SimulatorApplier {
	return &SimulatorApplier{
		replicas:     make(map[string]int),
		targets:      make(map[string]float64),
		applyLatency: cfg.ApplyLatency,
		failures:     make(map[string]error),
	}
}

// InitializeService seeds a service with a baseline replica count and
// utilization target.
func (s *SimulatorApplier) InitializeService(service string, replicas int, target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replicas[service] = replicas
	if target > 0 {
		s.targets[service] = target
	}
	logger.WithService(service).Infof("Initialized with %d replicas", replicas)
}

// FailService makes every subsequent apply for the service return err;
// pass nil to heal it.
func (s *SimulatorApplier) FailService(service string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, service)
		return
	}
	s.failures[service] = err
}

func (s *SimulatorApplier) CurrentReplicas(ctx context.Context, service string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.replicas[service]
	if !ok {
		return 0, models.ErrNotFound
	}
	return n, nil
}

func (s *SimulatorApplier) UtilizationTarget(ctx context.Context, service string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.targets[service]; ok {
		return t, nil
	}
	return defaultUtilizationTarget, nil
}

func (s *SimulatorApplier) ApplyReplicas(ctx context.Context, service string, desired int) error {
	if s.applyLatency > 0 {
		select {
		case <-time.After(s.applyLatency):
		case <-ctx.Done():
			return models.ErrApplyTimeout
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failures[service]; ok {
		return err
	}
	if _, ok := s.replicas[service]; !ok {
		return models.ErrNotFound
	}

	s.replicas[service] = desired
	logger.WithService(service).Debugf("Applied %d replicas", desired)
	return nil
}

func (s *SimulatorApplier) Close() error {
	return nil
}
