package dependency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestStore_UpsertAndGet(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, edge("api", "cache", models.Proportional(2))))

	got, err := store.Get("api", "cache")
	require.NoError(t, err)
	assert.Equal(t, models.DependencyProportional, got.Constraint.Type)
	assert.Equal(t, 2.0, got.Constraint.Ratio)
	assert.True(t, got.Enabled)
	assert.False(t, got.LastUpdated.IsZero())
}

func TestStore_UpsertRejectsSelfLoop(t *testing.T) {
	store := NewStore(nil)

	err := store.Upsert(context.Background(), edge("api", "api", models.FixedReplicas(3)))
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestStore_UpsertRejectsCycle(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, edge("a", "b", models.Proportional(1))))
	require.NoError(t, store.Upsert(ctx, edge("b", "c", models.Proportional(1))))

	err := store.Upsert(ctx, edge("c", "a", models.Proportional(1)))
	require.Error(t, err)

	var cycleErr *models.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.NotEmpty(t, cycleErr.Path)

	// The rejected edge must not have been stored.
	_, err = store.Get("c", "a")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_DisabledEdgeStillBlocksCycle(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	disabled := edge("a", "b", models.Proportional(1))
	disabled.Enabled = false
	require.NoError(t, store.Upsert(ctx, disabled))

	// Re-enabling later must not be able to close a loop, so the cycle
	// check counts disabled edges too.
	err := store.Upsert(ctx, edge("b", "a", models.Proportional(1)))
	var cycleErr *models.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestStore_ReplacingEdgeDoesNotSelfConflict(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, edge("a", "b", models.Proportional(1))))
	// Same key with a new constraint replaces, never trips the cycle check.
	require.NoError(t, store.Upsert(ctx, edge("a", "b", models.MinimumReplicas(4))))

	got, err := store.Get("a", "b")
	require.NoError(t, err)
	assert.Equal(t, models.DependencyMinimum, got.Constraint.Type)
}

func TestStore_DeleteThenReAddReversed(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, edge("a", "b", models.Proportional(1))))
	require.NoError(t, store.Delete(ctx, "a", "b"))
	require.NoError(t, store.Upsert(ctx, edge("b", "a", models.Proportional(1))))
}

func TestStore_SetEnabled(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, edge("api", "cache", models.FixedReplicas(5))))
	require.NoError(t, store.SetEnabled(ctx, "api", "cache", false))

	got, err := store.Get("api", "cache")
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	assert.ErrorIs(t, store.SetEnabled(ctx, "ghost", "cache", true), models.ErrNotFound)
}

func TestStore_ListAllSorted(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, edge("b", "c", models.Proportional(1))))
	require.NoError(t, store.Upsert(ctx, edge("a", "c", models.Proportional(1))))
	require.NoError(t, store.Upsert(ctx, edge("a", "b", models.Proportional(1))))

	all := store.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Source)
	assert.Equal(t, "b", all[0].Target)
	assert.Equal(t, "a", all[1].Source)
	assert.Equal(t, "c", all[1].Target)
	assert.Equal(t, "b", all[2].Source)
}

func TestGraph_TopologicalOrder(t *testing.T) {
	g := BuildGraph([]*models.ScalingDependency{
		edge("api", "cache", models.Proportional(1)),
		edge("api", "queue", models.Proportional(1)),
		edge("queue", "worker", models.Proportional(1)),
	}, true)

	ordered, unordered := g.TopologicalOrder()
	assert.Empty(t, unordered)
	assert.Equal(t, []string{"api", "cache", "queue", "worker"}, ordered)
}

func TestGraph_TopologicalOrderDeterministic(t *testing.T) {
	edges := []*models.ScalingDependency{
		edge("root", "z", models.Proportional(1)),
		edge("root", "a", models.Proportional(1)),
		edge("root", "m", models.Proportional(1)),
	}

	first, _ := BuildGraph(edges, true).TopologicalOrder()
	for i := 0; i < 20; i++ {
		again, _ := BuildGraph(edges, true).TopologicalOrder()
		assert.Equal(t, first, again)
	}
}

func TestGraph_CycleDetection(t *testing.T) {
	g := BuildGraph([]*models.ScalingDependency{
		edge("a", "b", models.Proportional(1)),
		edge("b", "c", models.Proportional(1)),
		edge("c", "a", models.Proportional(1)),
		edge("x", "a", models.Proportional(1)),
	}, true)

	ordered, unordered := g.TopologicalOrder()
	assert.Equal(t, []string{"x"}, ordered)
	assert.Equal(t, []string{"a", "b", "c"}, unordered)

	cycle := g.FindCycle()
	require.NotEmpty(t, cycle)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1], "cycle path closes on itself")
}

func TestGraph_EnabledOnlyView(t *testing.T) {
	disabled := edge("a", "b", models.Proportional(1))
	disabled.Enabled = false

	g := BuildGraph([]*models.ScalingDependency{disabled}, true)
	ordered, _ := g.TopologicalOrder()
	assert.Empty(t, ordered, "disabled edges are invisible to the resolver view")

	all := BuildGraph([]*models.ScalingDependency{disabled}, false)
	ordered, _ = all.TopologicalOrder()
	assert.Len(t, ordered, 2)
}
