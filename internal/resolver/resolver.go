// Package resolver propagates resolved replica counts across the
// dependency graph. Dependencies only ever push counts up, never down, so
// a dependency can never starve a service of its own load-driven need.
package resolver

import (
	"math"
	"sort"

	"github.com/scalemesh/coordinator/internal/dependency"
	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/pkg/models"
)

type Resolver struct {
	deps *dependency.Store
}

func New(deps *dependency.Store) *Resolver {
	return &Resolver{deps: deps}
}

// Resolve propagates the input counts over the store's current enabled
// edges. See ResolveWithEdges.
func (r *Resolver) Resolve(input map[string]int) (map[string]int, error) {
	return ResolveWithEdges(r.deps.ListAll(), input)
}

// ResolveWithEdges computes the final replica count per service from the
// prediction-derived input map and an edge snapshot. Targets are processed
// in a stable topological order (lexicographic tie-break), so every source
// is resolved before the constraints it forces are evaluated. A target's
// final value is the max of its own input value, its proportional and
// fixed contributions, and its minimum floors.
//
// The stored graph is acyclic by construction; if a cycle nonetheless
// shows up here (a racing write, a bug), resolution aborts for the
// affected services only. They keep their input values and the cycle is
// reported through an InconsistencyError alongside the partial result.
func ResolveWithEdges(edges []*models.ScalingDependency, input map[string]int) (map[string]int, error) {
	resolved := make(map[string]int, len(input))
	for s, n := range input {
		resolved[s] = n
	}

	incoming := make(map[string][]*models.ScalingDependency)
	graph := dependency.BuildGraph(edges, true)
	for _, e := range edges {
		if !e.Enabled {
			continue
		}
		incoming[e.Target] = append(incoming[e.Target], e)
	}
	for s := range input {
		graph.AddNode(s)
	}

	ordered, unordered := graph.TopologicalOrder()

	var inconsistency error
	if len(unordered) > 0 {
		inconsistency = &models.InconsistencyError{
			Services: unordered,
			Reason:   "cycle in dependency graph at resolve time",
		}
		logger.Errorf("Dependency resolution aborted for %d services: %v",
			len(unordered), inconsistency)
	}

	for _, target := range ordered {
		constraints := incoming[target]
		if len(constraints) == 0 {
			continue
		}
		sort.Slice(constraints, func(i, j int) bool {
			return constraints[i].Source < constraints[j].Source
		})

		final := resolved[target]
		for _, c := range constraints {
			var forced int
			switch c.Constraint.Type {
			case models.DependencyProportional:
				src, ok := resolved[c.Source]
				if !ok {
					continue // source has no resolved value this tick
				}
				forced = int(math.Ceil(float64(src) * c.Constraint.Ratio))
			case models.DependencyFixed:
				forced = c.Constraint.Replicas
			case models.DependencyMinimum:
				forced = c.Constraint.Replicas
			}
			if forced > final {
				final = forced
			}
		}

		if prev, ok := resolved[target]; !ok || final != prev {
			logger.WithService(target).Debugf(
				"Dependency constraints forced %d replicas", final)
		}
		resolved[target] = final
	}

	return resolved, inconsistency
}
