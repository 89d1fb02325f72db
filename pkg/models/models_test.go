package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeWindow_Contains(t *testing.T) {
	w := TimeWindow{StartOffset: 3600, EndOffset: 7200, ExpectedLoad: 0.9}

	assert.True(t, w.Contains(3600), "start offset is inclusive")
	assert.True(t, w.Contains(7199))
	assert.False(t, w.Contains(7200), "end offset is exclusive")
	assert.False(t, w.Contains(3599))
}

func TestServiceLoadPattern_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pattern ServiceLoadPattern
		wantErr bool
	}{
		{
			name: "valid daily pattern",
			pattern: ServiceLoadPattern{
				Service:     "api",
				PatternType: "daily",
				TimeWindows: []TimeWindow{{StartOffset: 0, EndOffset: 3600, ExpectedLoad: 0.5}},
			},
		},
		{
			name: "empty windows",
			pattern: ServiceLoadPattern{
				Service:     "api",
				PatternType: "daily",
			},
			wantErr: true,
		},
		{
			name: "load above one",
			pattern: ServiceLoadPattern{
				Service:     "api",
				PatternType: "daily",
				TimeWindows: []TimeWindow{{StartOffset: 0, EndOffset: 3600, ExpectedLoad: 1.2}},
			},
			wantErr: true,
		},
		{
			name: "negative load",
			pattern: ServiceLoadPattern{
				Service:     "api",
				PatternType: "daily",
				TimeWindows: []TimeWindow{{StartOffset: 0, EndOffset: 3600, ExpectedLoad: -0.1}},
			},
			wantErr: true,
		},
		{
			name: "end before start",
			pattern: ServiceLoadPattern{
				Service:     "api",
				PatternType: "daily",
				TimeWindows: []TimeWindow{{StartOffset: 3600, EndOffset: 3600, ExpectedLoad: 0.5}},
			},
			wantErr: true,
		},
		{
			name: "missing service",
			pattern: ServiceLoadPattern{
				PatternType: "daily",
				TimeWindows: []TimeWindow{{StartOffset: 0, EndOffset: 3600, ExpectedLoad: 0.5}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pattern.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServiceLoadPattern_CycleLength(t *testing.T) {
	daily := ServiceLoadPattern{PatternType: "daily"}
	assert.Equal(t, CycleDaily, daily.CycleLength())

	weekly := ServiceLoadPattern{PatternType: "weekly"}
	assert.Equal(t, CycleWeekly, weekly.CycleLength())

	custom := ServiceLoadPattern{
		PatternType: "batch",
		TimeWindows: []TimeWindow{
			{StartOffset: 0, EndOffset: 1800, ExpectedLoad: 0.5},
			{StartOffset: 1800, EndOffset: 5400, ExpectedLoad: 0.8},
		},
	}
	assert.Equal(t, int64(5400), custom.CycleLength())

	empty := ServiceLoadPattern{PatternType: "batch"}
	assert.Equal(t, CycleDaily, empty.CycleLength())
}

func TestConstraint_Validate(t *testing.T) {
	tests := []struct {
		name       string
		constraint Constraint
		wantErr    bool
	}{
		{name: "proportional", constraint: Proportional(1.5)},
		{name: "fixed", constraint: FixedReplicas(5)},
		{name: "minimum", constraint: MinimumReplicas(3)},
		{name: "zero ratio", constraint: Constraint{Type: DependencyProportional}, wantErr: true},
		{name: "negative ratio", constraint: Proportional(-2), wantErr: true},
		{name: "zero fixed", constraint: Constraint{Type: DependencyFixed}, wantErr: true},
		{name: "zero minimum", constraint: Constraint{Type: DependencyMinimum}, wantErr: true},
		{name: "unknown type", constraint: Constraint{Type: "elastic"}, wantErr: true},
		{
			name:       "proportional with replicas set",
			constraint: Constraint{Type: DependencyProportional, Ratio: 2, Replicas: 3},
			wantErr:    true,
		},
		{
			name:       "fixed with ratio set",
			constraint: Constraint{Type: DependencyFixed, Replicas: 3, Ratio: 2},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constraint.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScalingDependency_Validate(t *testing.T) {
	valid := ScalingDependency{Source: "api", Target: "cache", Constraint: Proportional(2)}
	assert.NoError(t, valid.Validate())

	selfLoop := ScalingDependency{Source: "api", Target: "api", Constraint: Proportional(2)}
	assert.Error(t, selfLoop.Validate())
}

func TestScalingEvent_Outcome(t *testing.T) {
	e := NewScalingEvent("api", 3, 5, TriggerPrediction)
	assert.False(t, e.HasOutcome())
	assert.NotEmpty(t, e.ID)

	before, after := 0.9, 0.6
	e.ObservedLoadBefore = &before
	e.ObservedLoadAfter = &after
	assert.True(t, e.HasOutcome())

	clone := e.Clone()
	*clone.ObservedLoadBefore = 0.1
	assert.Equal(t, 0.9, *e.ObservedLoadBefore, "clone must not alias outcome samples")
}

func TestCycleError_Message(t *testing.T) {
	err := &CycleError{Path: []string{"a", "b", "a"}}
	assert.Contains(t, err.Error(), "a -> b -> a")

	var target *CycleError
	assert.True(t, errors.As(error(err), &target))
}
