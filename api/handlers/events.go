package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scalemesh/coordinator/internal/effectiveness"
	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/internal/metrics"
	"github.com/scalemesh/coordinator/pkg/models"
)

type EventHandler struct {
	log          *eventlog.Log
	analyzer     *effectiveness.Analyzer
	metrics      *metrics.Metrics
	defaultLimit int
	maxLimit     int
}

func NewEventHandler(log *eventlog.Log, analyzer *effectiveness.Analyzer,
	m *metrics.Metrics, defaultLimit, maxLimit int) *EventHandler {

	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &EventHandler{
		log:          log,
		analyzer:     analyzer,
		metrics:      m,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (h *EventHandler) limit(c *gin.Context) int {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	return limit
}

// List godoc
// @Summary Recent scaling events
// @Description Newest first, optionally filtered by service
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param service query string false "Filter by service"
// @Param limit query int false "Maximum events to return"
// @Success 200 {object} map[string]interface{} "List of events"
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	limit := h.limit(c)

	var events []*models.ScalingEvent
	if service := c.Query("service"); service != "" {
		events = h.log.Recent(service, limit)
	} else {
		events = h.log.RecentAll(limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

// Effectiveness godoc
// @Summary Scaling effectiveness for a service
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param service path string true "Service name"
// @Success 200 {object} models.EffectivenessReport
// @Router /events/{service}/effectiveness [get]
func (h *EventHandler) Effectiveness(c *gin.Context) {
	report := h.analyzer.Effectiveness(c.Param("service"))
	if h.metrics != nil {
		h.metrics.IncVerdict(string(report.Verdict))
	}
	c.JSON(http.StatusOK, report)
}

type OutcomeRequest struct {
	ObservedLoadBefore float64 `json:"observed_load_before" binding:"required"`
	ObservedLoadAfter  float64 `json:"observed_load_after" binding:"required"`
	EventID            string  `json:"event_id,omitempty"`
}

// RecordOutcome godoc
// @Summary Attach outcome samples to a scaling event
// @Description Fills observed load before/after on the named event, or the newest event still missing an outcome
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param service path string true "Service name"
// @Param request body OutcomeRequest true "Outcome samples"
// @Success 204 "Recorded"
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "No matching event"
// @Router /events/{service}/outcome [post]
func (h *EventHandler) RecordOutcome(c *gin.Context) {
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var err error
	if req.EventID != "" {
		err = h.log.RecordOutcome(ctx, req.EventID, req.ObservedLoadBefore, req.ObservedLoadAfter)
	} else {
		err = h.log.RecordLatestOutcome(ctx, c.Param("service"), req.ObservedLoadBefore, req.ObservedLoadAfter)
	}

	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no matching event"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record outcome"})
		return
	}

	c.Status(http.StatusNoContent)
}
