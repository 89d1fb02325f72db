package applier

import (
	"context"
	"time"

	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/internal/resilience"
)

// ResilientApplier wraps another applier with a per-service circuit
// breaker so a collaborator that keeps timing out stops being hammered
// every tick.
type ResilientApplier struct {
	inner    ReplicaApplier
	breakers *resilience.BreakerGroup
}

type ResilientConfig struct {
	MaxFailures int
	OpenTimeout time.Duration
}

func NewResilientApplier(inner ReplicaApplier, cfg ResilientConfig) *ResilientApplier {
	return &ResilientApplier{
		inner: inner,
		breakers: resilience.NewBreakerGroup(resilience.CircuitBreakerConfig{
			MaxFailures: cfg.MaxFailures,
			Timeout:     cfg.OpenTimeout,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.WithService(name).Warnf(
					"Apply circuit breaker %s -> %s", from, to)
			},
		}),
	}
}

func (r *ResilientApplier) CurrentReplicas(ctx context.Context, service string) (int, error) {
	return r.inner.CurrentReplicas(ctx, service)
}

func (r *ResilientApplier) UtilizationTarget(ctx context.Context, service string) (float64, error) {
	return r.inner.UtilizationTarget(ctx, service)
}

func (r *ResilientApplier) ApplyReplicas(ctx context.Context, service string, desired int) error {
	return r.breakers.For(service).Execute(func() error {
		return r.inner.ApplyReplicas(ctx, service, desired)
	})
}

func (r *ResilientApplier) Close() error {
	return r.inner.Close()
}
