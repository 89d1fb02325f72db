package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalemesh/coordinator/internal/pattern"
	"github.com/scalemesh/coordinator/internal/prediction"
	"github.com/scalemesh/coordinator/pkg/models"
)

type stubBaselines struct {
	replicas int
	target   float64
	err      error
}

func (s stubBaselines) CurrentReplicas(_ context.Context, _ string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.replicas, nil
}

func (s stubBaselines) UtilizationTarget(_ context.Context, _ string) (float64, error) {
	return s.target, nil
}

func predictionRouter(t *testing.T, baselines prediction.BaselineProvider, withPattern bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	patterns := pattern.NewStore(nil)
	if withPattern {
		require.NoError(t, patterns.Upsert(context.Background(), &models.ServiceLoadPattern{
			Service:     "api",
			PatternType: "daily",
			TimeWindows: []models.TimeWindow{
				{StartOffset: 0, EndOffset: models.CycleDaily, ExpectedLoad: 0.8},
			},
		}))
	}
	engine := prediction.New(prediction.Config{}, patterns, baselines, nil)
	handler := NewPredictionHandler(nil, engine)

	router := gin.New()
	router.GET("/predictions/:service", handler.Get)
	return router
}

func TestPredictionGet_UnknownService(t *testing.T) {
	router := predictionRouter(t, stubBaselines{replicas: 2, target: 0.5}, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions/api", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPredictionGet_BadUtilizationTarget(t *testing.T) {
	router := predictionRouter(t, stubBaselines{replicas: 2, target: 1.5}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions/api", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "utilization_target")
}

func TestPredictionGet_CollaboratorFailure(t *testing.T) {
	router := predictionRouter(t,
		stubBaselines{err: errors.New("connection refused"), target: 0.5}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions/api", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPredictionGet_Success(t *testing.T) {
	router := predictionRouter(t, stubBaselines{replicas: 2, target: 0.5}, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions/api", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"recommended_replicas":4`)
}
