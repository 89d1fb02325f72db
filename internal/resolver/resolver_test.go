package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemesh/coordinator/internal/dependency"
	"github.com/scalemesh/coordinator/pkg/models"
)

func edge(source, target string, c models.Constraint) *models.ScalingDependency {
	return &models.ScalingDependency{
		Source:     source,
		Target:     target,
		Constraint: c,
		Enabled:    true,
	}
}

func TestResolve_ProportionalAndFixed(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("a", "b", models.Proportional(2)),
		edge("a", "c", models.FixedReplicas(5)),
	}

	resolved, err := ResolveWithEdges(edges, map[string]int{"a": 3})
	require.NoError(t, err)

	assert.Equal(t, 3, resolved["a"])
	assert.Equal(t, 6, resolved["b"], "proportional forces ceil(3*2)")
	assert.Equal(t, 5, resolved["c"], "fixed forces its replica count")
}

func TestResolve_ProportionalRoundsUp(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("a", "b", models.Proportional(0.5)),
	}

	resolved, err := ResolveWithEdges(edges, map[string]int{"a": 3})
	require.NoError(t, err)
	assert.Equal(t, 2, resolved["b"], "ceil(3*0.5) = 2")
}

func TestResolve_NeverPushesBelowInput(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("a", "b", models.Proportional(0.5)),
	}

	// b already needs 10 replicas of its own; the dependency's 2 must not win.
	resolved, err := ResolveWithEdges(edges, map[string]int{"a": 3, "b": 10})
	require.NoError(t, err)
	assert.Equal(t, 10, resolved["b"])
}

func TestResolve_MultipleConstraintsTakeMax(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("a", "c", models.Proportional(2)),
		edge("b", "c", models.FixedReplicas(7)),
		edge("d", "c", models.MinimumReplicas(3)),
	}

	resolved, err := ResolveWithEdges(edges, map[string]int{"a": 2, "b": 1, "d": 1, "c": 1})
	require.NoError(t, err)
	assert.Equal(t, 7, resolved["c"], "max(1, ceil(2*2)=4, 7, 3) = 7")
}

func TestResolve_TransitivePropagation(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("a", "b", models.Proportional(2)),
		edge("b", "c", models.Proportional(2)),
	}

	resolved, err := ResolveWithEdges(edges, map[string]int{"a": 2})
	require.NoError(t, err)
	assert.Equal(t, 4, resolved["b"])
	assert.Equal(t, 8, resolved["c"], "b's forced value feeds c")
}

func TestResolve_DisabledEdgesIgnored(t *testing.T) {
	off := edge("a", "b", models.FixedReplicas(50))
	off.Enabled = false

	resolved, err := ResolveWithEdges([]*models.ScalingDependency{off}, map[string]int{"a": 2, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, resolved["b"])
}

func TestResolve_ProportionalSkipsUnresolvedSource(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("ghost", "b", models.Proportional(3)),
	}

	resolved, err := ResolveWithEdges(edges, map[string]int{"b": 2})
	require.NoError(t, err)
	assert.Equal(t, 2, resolved["b"], "source without a value this tick contributes nothing")
	_, ok := resolved["ghost"]
	assert.False(t, ok)
}

func TestResolve_CycleAbortsOnlyAffectedComponent(t *testing.T) {
	// A cycle should never be stored, but a racing write can produce one
	// in a snapshot. The rest of the graph must still resolve.
	edges := []*models.ScalingDependency{
		edge("a", "b", models.Proportional(1)),
		edge("b", "a", models.Proportional(1)),
		edge("x", "y", models.Proportional(3)),
	}

	input := map[string]int{"a": 2, "b": 3, "x": 2}
	resolved, err := ResolveWithEdges(edges, input)

	var inconsistency *models.InconsistencyError
	require.ErrorAs(t, err, &inconsistency)
	assert.ElementsMatch(t, []string{"a", "b"}, inconsistency.Services)

	assert.Equal(t, 2, resolved["a"], "cycle members keep their input values")
	assert.Equal(t, 3, resolved["b"])
	assert.Equal(t, 6, resolved["y"], "unaffected component still resolves")
}

func TestResolve_Deterministic(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("a", "c", models.Proportional(1.5)),
		edge("b", "c", models.Proportional(2.5)),
		edge("c", "d", models.MinimumReplicas(2)),
	}
	input := map[string]int{"a": 3, "b": 2, "c": 1, "d": 1}

	first, err := ResolveWithEdges(edges, input)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := ResolveWithEdges(edges, input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolver_UsesStoreSnapshot(t *testing.T) {
	store := dependency.NewStore(nil)
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, edge("a", "b", models.Proportional(2))))

	r := New(store)
	resolved, err := r.Resolve(map[string]int{"a": 4})
	require.NoError(t, err)
	assert.Equal(t, 8, resolved["b"])
}
