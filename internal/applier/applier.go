// Package applier defines the external collaborator that owns the actual
// replica counts. The coordinator only decides desired counts; appliers
// carry them out.
package applier

import "context"

// ReplicaApplier is the contract the coordinator consumes. Implementations
// must honor context deadlines: the loop converts a timeout into a logged
// per-service failure instead of stalling the tick.
type ReplicaApplier interface {
	// CurrentReplicas returns the service's running replica count.
	CurrentReplicas(ctx context.Context, service string) (int, error)

	// UtilizationTarget returns the service's target utilization in (0,1].
	UtilizationTarget(ctx context.Context, service string) (float64, error)

	// ApplyReplicas sets the desired replica count for a service.
	ApplyReplicas(ctx context.Context, service string, desired int) error

	// Close releases resources
	Close() error
}
