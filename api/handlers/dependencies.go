package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scalemesh/coordinator/internal/dependency"
	"github.com/scalemesh/coordinator/pkg/models"
	"github.com/scalemesh/coordinator/pkg/validation"
)

type DependencyHandler struct {
	store *dependency.Store
}

func NewDependencyHandler(store *dependency.Store) *DependencyHandler {
	return &DependencyHandler{store: store}
}

type UpsertDependencyRequest struct {
	DependencyType string   `json:"dependency_type" binding:"required" example:"proportional"`
	Ratio          *float64 `json:"ratio,omitempty" example:"2.0"`
	FixedReplicas  *int     `json:"fixed_replicas,omitempty" example:"5"`
	MinReplicas    *int     `json:"min_replicas,omitempty" example:"3"`
	Enabled        *bool    `json:"enabled,omitempty" example:"true"`
}

func (r *UpsertDependencyRequest) constraint() (models.Constraint, error) {
	switch models.DependencyType(r.DependencyType) {
	case models.DependencyProportional:
		if r.Ratio == nil {
			return models.Constraint{}, models.NewValidationError("ratio",
				"required for proportional dependencies")
		}
		if r.FixedReplicas != nil || r.MinReplicas != nil {
			return models.Constraint{}, models.NewValidationError("dependency_type",
				"proportional dependencies take only a ratio")
		}
		return models.Proportional(*r.Ratio), nil
	case models.DependencyFixed:
		if r.FixedReplicas == nil {
			return models.Constraint{}, models.NewValidationError("fixed_replicas",
				"required for fixed dependencies")
		}
		if r.Ratio != nil || r.MinReplicas != nil {
			return models.Constraint{}, models.NewValidationError("dependency_type",
				"fixed dependencies take only fixed_replicas")
		}
		return models.FixedReplicas(*r.FixedReplicas), nil
	case models.DependencyMinimum:
		if r.MinReplicas == nil {
			return models.Constraint{}, models.NewValidationError("min_replicas",
				"required for minimum dependencies")
		}
		if r.Ratio != nil || r.FixedReplicas != nil {
			return models.Constraint{}, models.NewValidationError("dependency_type",
				"minimum dependencies take only min_replicas")
		}
		return models.MinimumReplicas(*r.MinReplicas), nil
	default:
		return models.Constraint{}, models.NewValidationError("dependency_type",
			"must be one of proportional, fixed, minimum")
	}
}

// List godoc
// @Summary List scaling dependencies
// @Tags Dependencies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of dependencies"
// @Router /dependencies [get]
func (h *DependencyHandler) List(c *gin.Context) {
	deps := h.store.ListAll()

	c.JSON(http.StatusOK, gin.H{
		"dependencies": deps,
		"count":        len(deps),
	})
}

// Get godoc
// @Summary Get scaling dependency
// @Tags Dependencies
// @Produce json
// @Security BearerAuth
// @Param source path string true "Source service"
// @Param target path string true "Target service"
// @Success 200 {object} models.ScalingDependency
// @Failure 404 {object} map[string]string "Dependency not found"
// @Router /dependencies/{source}/{target} [get]
func (h *DependencyHandler) Get(c *gin.Context) {
	d, err := h.store.Get(c.Param("source"), c.Param("target"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dependency not found"})
		return
	}

	c.JSON(http.StatusOK, d)
}

// Upsert godoc
// @Summary Create or replace scaling dependency
// @Tags Dependencies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param source path string true "Source service"
// @Param target path string true "Target service"
// @Param request body UpsertDependencyRequest true "Dependency definition"
// @Success 200 {object} models.ScalingDependency
// @Failure 400 {object} map[string]string "Validation failure, self-loop, or cycle"
// @Router /dependencies/{source}/{target} [post]
func (h *DependencyHandler) Upsert(c *gin.Context) {
	source := validation.SanitizeString(c.Param("source"))
	target := validation.SanitizeString(c.Param("target"))

	for _, name := range []string{source, target} {
		if err := validation.ValidateServiceName(name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var req UpsertDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	constraint, err := req.constraint()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	d := &models.ScalingDependency{
		Source:     source,
		Target:     target,
		Constraint: constraint,
		Enabled:    enabled,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Upsert(ctx, d); err != nil {
		var cycleErr *models.CycleError
		if models.IsValidationError(err) || errors.As(err, &cycleErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store dependency"})
		return
	}

	stored, err := h.store.Get(source, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read back dependency"})
		return
	}

	c.JSON(http.StatusOK, stored)
}

// Delete godoc
// @Summary Delete scaling dependency
// @Tags Dependencies
// @Security BearerAuth
// @Param source path string true "Source service"
// @Param target path string true "Target service"
// @Success 204 "Deleted"
// @Router /dependencies/{source}/{target} [delete]
func (h *DependencyHandler) Delete(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.store.Delete(ctx, c.Param("source"), c.Param("target"))
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete dependency"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Enable godoc
// @Summary Enable scaling dependency
// @Tags Dependencies
// @Produce json
// @Security BearerAuth
// @Param source path string true "Source service"
// @Param target path string true "Target service"
// @Success 200 {object} models.ScalingDependency
// @Failure 404 {object} map[string]string "Dependency not found"
// @Router /dependencies/{source}/{target}/enable [post]
func (h *DependencyHandler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable godoc
// @Summary Disable scaling dependency
// @Tags Dependencies
// @Produce json
// @Security BearerAuth
// @Param source path string true "Source service"
// @Param target path string true "Target service"
// @Success 200 {object} models.ScalingDependency
// @Failure 404 {object} map[string]string "Dependency not found"
// @Router /dependencies/{source}/{target}/disable [post]
func (h *DependencyHandler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

func (h *DependencyHandler) setEnabled(c *gin.Context, enabled bool) {
	source := c.Param("source")
	target := c.Param("target")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.SetEnabled(ctx, source, target, enabled); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "dependency not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update dependency"})
		return
	}

	d, err := h.store.Get(source, target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read back dependency"})
		return
	}

	c.JSON(http.StatusOK, d)
}
