package models

import "time"

type DependencyType string

const (
	DependencyProportional DependencyType = "proportional"
	DependencyFixed        DependencyType = "fixed"
	DependencyMinimum      DependencyType = "minimum"
)

// Constraint is the tagged parameter of a scaling dependency. Ratio is
// meaningful only for proportional constraints, Replicas only for fixed and
// minimum ones; the constructors below keep the pairing consistent.
type Constraint struct {
	Type     DependencyType `json:"type"`
	Ratio    float64        `json:"ratio,omitempty"`
	Replicas int            `json:"replicas,omitempty"`
}

// Proportional forces the target to at least ceil(source * ratio) replicas.
func Proportional(ratio float64) Constraint {
	return Constraint{Type: DependencyProportional, Ratio: ratio}
}

// FixedReplicas forces the target to at least the given replica count
// whenever the dependency is enabled.
func FixedReplicas(n int) Constraint {
	return Constraint{Type: DependencyFixed, Replicas: n}
}

// MinimumReplicas floors the target's replica count.
func MinimumReplicas(n int) Constraint {
	return Constraint{Type: DependencyMinimum, Replicas: n}
}

func (c Constraint) Validate() error {
	switch c.Type {
	case DependencyProportional:
		if c.Ratio <= 0 {
			return NewValidationError("ratio", "must be positive")
		}
		if c.Replicas != 0 {
			return NewValidationError("replicas",
				"must not be set for proportional dependencies")
		}
	case DependencyFixed:
		if c.Replicas <= 0 {
			return NewValidationError("fixed_replicas", "must be positive")
		}
		if c.Ratio != 0 {
			return NewValidationError("ratio",
				"must not be set for fixed dependencies")
		}
	case DependencyMinimum:
		if c.Replicas <= 0 {
			return NewValidationError("min_replicas", "must be positive")
		}
		if c.Ratio != 0 {
			return NewValidationError("ratio",
				"must not be set for minimum dependencies")
		}
	default:
		return NewValidationError("dependency_type",
			"must be one of proportional, fixed, minimum")
	}
	return nil
}

// ScalingDependency is a directed constraint where the source service's
// replica count forces a floor on the target's.
type ScalingDependency struct {
	Source      string     `json:"source"`
	Target      string     `json:"target"`
	Constraint  Constraint `json:"constraint"`
	Enabled     bool       `json:"enabled"`
	LastUpdated time.Time  `json:"last_updated"`
}

// Validate checks the edge's invariants except acyclicity, which needs the
// whole graph and is enforced by the dependency store.
func (d *ScalingDependency) Validate() error {
	if d.Source == "" {
		return NewValidationError("source", "must not be empty")
	}
	if d.Target == "" {
		return NewValidationError("target", "must not be empty")
	}
	if d.Source == d.Target {
		return NewValidationError("target",
			"a service cannot depend on itself")
	}
	return d.Constraint.Validate()
}
