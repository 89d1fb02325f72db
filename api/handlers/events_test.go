package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemesh/coordinator/internal/effectiveness"
	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/internal/metrics"
	"github.com/scalemesh/coordinator/pkg/models"
)

func TestEffectiveness_CountsVerdicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	log := eventlog.NewLog(10, nil)
	require.NoError(t, log.Append(ctx, models.NewScalingEvent("api", 2, 4, models.TriggerPrediction)))
	require.NoError(t, log.RecordLatestOutcome(ctx, "api", 0.9, 0.5))

	analyzer := effectiveness.New(effectiveness.Config{MinSamples: 1}, log)
	m := metrics.New()
	handler := NewEventHandler(log, analyzer, m, 20, 100)

	router := gin.New()
	router.GET("/events/:service/effectiveness", handler.Effectiveness)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/api/effectiveness", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.VerdictEffective))

	// The verdict shows up in the exposition.
	mw := httptest.NewRecorder()
	m.Handler().ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, mw.Body.String(),
		`coordinator_effectiveness_verdicts_total{verdict="effective"} 1`)
}

func TestEffectiveness_InsufficientDataStillCounted(t *testing.T) {
	gin.SetMode(gin.TestMode)

	log := eventlog.NewLog(10, nil)
	analyzer := effectiveness.New(effectiveness.Config{}, log)
	m := metrics.New()
	handler := NewEventHandler(log, analyzer, m, 20, 100)

	router := gin.New()
	router.GET("/events/:service/effectiveness", handler.Effectiveness)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/ghost/effectiveness", nil))
	require.Equal(t, http.StatusOK, w.Code)

	mw := httptest.NewRecorder()
	m.Handler().ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, mw.Body.String(),
		`coordinator_effectiveness_verdicts_total{verdict="insufficient_data"} 1`)
}
