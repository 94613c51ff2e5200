package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openfleet/autoscaler/internal/engine"
	"github.com/openfleet/autoscaler/pkg/models"
)

// EngineController is the engine surface the HTTP layer depends on.
type EngineController interface {
	RegisterTarget(target *models.ScalingTarget) error
	Targets() []*models.ScalingTarget
	GetTargetInfo(targetID string) (*engine.TargetInfo, error)
	RecentActions(targetID string, limit int) ([]*models.ScalingAction, error)
	GetStatus() *engine.Status
	Start()
	Stop()
	Running() bool
}

type TargetHandler struct {
	engine       EngineController
	defaultLimit int
	maxLimit     int
}

func NewTargetHandler(engine EngineController, defaultLimit, maxLimit int) *TargetHandler {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit <= 0 {
		maxLimit = 500
	}
	return &TargetHandler{
		engine:       engine,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

type CreateTargetRequest struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name" binding:"required"`
	ResourceType    string                   `json:"resource_type" binding:"required"`
	CurrentCount    int                      `json:"current_count" binding:"required"`
	MinCount        int                      `json:"min_count" binding:"required"`
	MaxCount        int                      `json:"max_count" binding:"required"`
	Policy          models.ScalingPolicy     `json:"policy"`
	CostPerUnitHour float64                  `json:"cost_per_unit_hour"`
	Thresholds      []models.MetricThreshold `json:"thresholds"`
}

func (h *TargetHandler) Create(c *gin.Context) {
	var req CreateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	target := &models.ScalingTarget{
		ID:              req.ID,
		Name:            req.Name,
		ResourceType:    req.ResourceType,
		CurrentCount:    req.CurrentCount,
		MinCount:        req.MinCount,
		MaxCount:        req.MaxCount,
		Policy:          req.Policy,
		CostPerUnitHour: req.CostPerUnitHour,
		Thresholds:      req.Thresholds,
	}
	if target.ID == "" {
		target.ID = models.NewUUID()
	}

	if err := h.engine.RegisterTarget(target); err != nil {
		if errors.Is(err, engine.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register target"})
		return
	}

	c.JSON(http.StatusCreated, target)
}

func (h *TargetHandler) List(c *gin.Context) {
	targets := h.engine.Targets()
	c.JSON(http.StatusOK, gin.H{
		"targets": targets,
		"count":   len(targets),
	})
}

func (h *TargetHandler) Get(c *gin.Context) {
	info, err := h.engine.GetTargetInfo(c.Param("id"))
	if err != nil {
		if errors.Is(err, engine.ErrTargetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load target"})
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *TargetHandler) Actions(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	actions, err := h.engine.RecentActions(c.Param("id"), limit)
	if err != nil {
		if errors.Is(err, engine.ErrTargetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load actions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target_id": c.Param("id"),
		"actions":   actions,
		"count":     len(actions),
	})
}
