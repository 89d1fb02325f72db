package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scalemesh/coordinator/internal/pattern"
	"github.com/scalemesh/coordinator/pkg/models"
	"github.com/scalemesh/coordinator/pkg/validation"
)

type PatternHandler struct {
	store *pattern.Store
}

func NewPatternHandler(store *pattern.Store) *PatternHandler {
	return &PatternHandler{store: store}
}

type UpsertPatternRequest struct {
	PatternType string              `json:"pattern_type" binding:"required" example:"daily"`
	TimeWindows []models.TimeWindow `json:"time_windows" binding:"required"`
}

// List godoc
// @Summary List load patterns
// @Tags Patterns
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of patterns"
// @Router /patterns [get]
func (h *PatternHandler) List(c *gin.Context) {
	patterns := h.store.List()

	c.JSON(http.StatusOK, gin.H{
		"patterns": patterns,
		"count":    len(patterns),
	})
}

// Get godoc
// @Summary Get load pattern
// @Tags Patterns
// @Produce json
// @Security BearerAuth
// @Param service path string true "Service name"
// @Success 200 {object} models.ServiceLoadPattern
// @Failure 404 {object} map[string]string "Pattern not found"
// @Router /patterns/{service} [get]
func (h *PatternHandler) Get(c *gin.Context) {
	service := c.Param("service")

	p, err := h.store.Get(service)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "pattern not found"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// Upsert godoc
// @Summary Create or replace load pattern
// @Tags Patterns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param service path string true "Service name"
// @Param request body UpsertPatternRequest true "Pattern definition"
// @Success 200 {object} models.ServiceLoadPattern
// @Failure 400 {object} map[string]string "Validation failure"
// @Router /patterns/{service} [post]
func (h *PatternHandler) Upsert(c *gin.Context) {
	service := validation.SanitizeString(c.Param("service"))
	if err := validation.ValidateServiceName(service); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req UpsertPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &models.ServiceLoadPattern{
		Service:     service,
		PatternType: req.PatternType,
		TimeWindows: req.TimeWindows,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Upsert(ctx, p); err != nil {
		if models.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store pattern"})
		return
	}

	stored, err := h.store.Get(service)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read back pattern"})
		return
	}

	c.JSON(http.StatusOK, stored)
}

// Delete godoc
// @Summary Delete load pattern
// @Tags Patterns
// @Security BearerAuth
// @Param service path string true "Service name"
// @Success 204 "Deleted"
// @Router /patterns/{service} [delete]
func (h *PatternHandler) Delete(c *gin.Context) {
	service := c.Param("service")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Delete(ctx, service); err != nil && !errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete pattern"})
		return
	}

	c.Status(http.StatusNoContent)
}
