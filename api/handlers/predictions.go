package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scalemesh/coordinator/internal/coordinator"
	"github.com/scalemesh/coordinator/internal/prediction"
	"github.com/scalemesh/coordinator/pkg/models"
)

type PredictionHandler struct {
	loop   *coordinator.Coordinator
	engine *prediction.Engine
}

func NewPredictionHandler(loop *coordinator.Coordinator, engine *prediction.Engine) *PredictionHandler {
	return &PredictionHandler{loop: loop, engine: engine}
}

// List godoc
// @Summary Current predictions
// @Description Predictions produced by the most recent coordinator tick
// @Tags Predictions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of predictions"
// @Router /predictions [get]
func (h *PredictionHandler) List(c *gin.Context) {
	predictions := h.loop.Predictions()

	c.JSON(http.StatusOK, gin.H{
		"predictions": predictions,
		"count":       len(predictions),
	})
}

// Get godoc
// @Summary On-demand prediction
// @Description Compute a fresh prediction for one service without waiting for a tick
// @Tags Predictions
// @Produce json
// @Security BearerAuth
// @Param service path string true "Service name"
// @Success 200 {object} models.ScalingPrediction
// @Failure 400 {object} map[string]string "Invalid utilization target"
// @Failure 404 {object} map[string]string "Unknown service"
// @Failure 502 {object} map[string]string "Replica collaborator unavailable"
// @Router /predictions/{service} [get]
func (h *PredictionHandler) Get(c *gin.Context) {
	service := c.Param("service")

	p, err := h.engine.Predict(c.Request.Context(), service, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown service"})
		case models.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": "replica collaborator unavailable"})
		}
		return
	}

	c.JSON(http.StatusOK, p)
}
