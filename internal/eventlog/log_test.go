package eventlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemesh/coordinator/pkg/models"
)

func TestLog_AppendAndRecent(t *testing.T) {
	log := NewLog(10, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := models.NewScalingEvent("api", i, i+1, models.TriggerPrediction)
		e.Timestamp = time.Unix(int64(1000+i), 0)
		require.NoError(t, log.Append(ctx, e))
	}

	recent := log.Recent("api", 0)
	require.Len(t, recent, 3)
	assert.Equal(t, 3, recent[0].NewReplicas, "newest first")
	assert.Equal(t, 1, recent[2].NewReplicas)

	limited := log.Recent("api", 2)
	require.Len(t, limited, 2)
	assert.Equal(t, 3, limited[0].NewReplicas)
}

func TestLog_EvictsOldestPerService(t *testing.T) {
	log := NewLog(3, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(ctx, models.NewScalingEvent("api", i, i+1, models.TriggerPrediction)))
	}

	recent := log.Recent("api", 0)
	require.Len(t, recent, 3)
	assert.Equal(t, 5, recent[0].NewReplicas)
	assert.Equal(t, 3, recent[2].NewReplicas, "events 1 and 2 were evicted")
}

func TestLog_WindowsAreIndependentPerService(t *testing.T) {
	log := NewLog(2, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, log.Append(ctx, models.NewScalingEvent("api", i, i+1, models.TriggerPrediction)))
	}
	require.NoError(t, log.Append(ctx, models.NewScalingEvent("cache", 1, 2, models.TriggerDependency)))

	assert.Len(t, log.Recent("api", 0), 2)
	assert.Len(t, log.Recent("cache", 0), 1)
	assert.Equal(t, []string{"api", "cache"}, log.Services())
}

func TestLog_RecordOutcome(t *testing.T) {
	log := NewLog(10, nil)
	ctx := context.Background()

	e := models.NewScalingEvent("api", 3, 6, models.TriggerPrediction)
	require.NoError(t, log.Append(ctx, e))

	require.NoError(t, log.RecordOutcome(ctx, e.ID, 0.9, 0.6))

	recent := log.Recent("api", 1)
	require.Len(t, recent, 1)
	require.True(t, recent[0].HasOutcome())
	assert.Equal(t, 0.9, *recent[0].ObservedLoadBefore)
	assert.Equal(t, 0.6, *recent[0].ObservedLoadAfter)

	assert.ErrorIs(t, log.RecordOutcome(ctx, "no-such-id", 0.1, 0.2), models.ErrNotFound)
}

func TestLog_RecordLatestOutcomeSkipsFilledEvents(t *testing.T) {
	log := NewLog(10, nil)
	ctx := context.Background()

	first := models.NewScalingEvent("api", 2, 4, models.TriggerPrediction)
	second := models.NewScalingEvent("api", 4, 6, models.TriggerPrediction)
	require.NoError(t, log.Append(ctx, first))
	require.NoError(t, log.Append(ctx, second))

	// Fills the newest event.
	require.NoError(t, log.RecordLatestOutcome(ctx, "api", 0.8, 0.5))
	// Newest already has an outcome; the next call falls through to the older one.
	require.NoError(t, log.RecordLatestOutcome(ctx, "api", 0.7, 0.4))

	recent := log.Recent("api", 0)
	require.Len(t, recent, 2)
	assert.Equal(t, 0.8, *recent[0].ObservedLoadBefore)
	assert.Equal(t, 0.7, *recent[1].ObservedLoadBefore)

	// Everything filled: nothing left to record against.
	assert.ErrorIs(t, log.RecordLatestOutcome(ctx, "api", 0.1, 0.1), models.ErrNotFound)
}

func TestLog_RecentAll(t *testing.T) {
	log := NewLog(10, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := models.NewScalingEvent(fmt.Sprintf("svc-%d", i), 1, 2, models.TriggerPrediction)
		e.Timestamp = time.Unix(int64(1000+i), 0)
		require.NoError(t, log.Append(ctx, e))
	}

	all := log.RecentAll(0)
	require.Len(t, all, 3)
	assert.Equal(t, "svc-2", all[0].Service, "newest first across services")

	limited := log.RecentAll(2)
	assert.Len(t, limited, 2)
}

func TestLog_RecentReturnsCopies(t *testing.T) {
	log := NewLog(10, nil)
	ctx := context.Background()
	require.NoError(t, log.Append(ctx, models.NewScalingEvent("api", 1, 2, models.TriggerPrediction)))

	log.Recent("api", 1)[0].NewReplicas = 99
	assert.Equal(t, 2, log.Recent("api", 1)[0].NewReplicas)
}
