package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openfleet/autoscaler/pkg/database/queries"
	"github.com/openfleet/autoscaler/pkg/models"
)

const defaultArchiveWindow = 24 * time.Hour

// ActionStore is the archived-action query surface the HTTP layer
// depends on. *queries.ActionRepository implements it.
type ActionStore interface {
	GetByTarget(ctx context.Context, targetID string, from, to time.Time, limit int) ([]*models.ScalingAction, error)
	GetRecent(ctx context.Context, limit int) ([]*models.ScalingAction, error)
	GetStats(ctx context.Context, targetID string, from, to time.Time) (*queries.ActionStats, error)
}

// ActionsHandler serves the Postgres action archive. It is only routed
// when persistence is enabled; the in-memory ledger stays the source of
// truth for the live reporting window.
type ActionsHandler struct {
	store        ActionStore
	defaultLimit int
	maxLimit     int
}

func NewActionsHandler(store ActionStore, defaultLimit, maxLimit int) *ActionsHandler {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit <= 0 {
		maxLimit = 500
	}
	return &ActionsHandler{
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Archive serves GET /targets/:id/actions/archive.
func (h *ActionsHandler) Archive(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}

	actions, err := h.store.GetByTarget(c.Request.Context(), c.Param("id"), from, to, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load archived actions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target_id": c.Param("id"),
		"from":      from,
		"to":        to,
		"actions":   actions,
		"count":     len(actions),
	})
}

// Stats serves GET /targets/:id/actions/stats.
func (h *ActionsHandler) Stats(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	stats, err := h.store.GetStats(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load action stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Recent serves GET /actions/recent across all targets.
func (h *ActionsHandler) Recent(c *gin.Context) {
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}

	actions, err := h.store.GetRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recent actions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actions": actions,
		"count":   len(actions),
	})
}

func (h *ActionsHandler) parseLimit(c *gin.Context) (int, bool) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return 0, false
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	return limit, true
}

// parseWindow reads optional RFC3339 from/to query params, defaulting to
// the trailing 24 hours.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	to := time.Now()
	from := to.Add(-defaultArchiveWindow)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be an RFC3339 timestamp"})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be an RFC3339 timestamp"})
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return time.Time{}, time.Time{}, false
	}

	return from, to, true
}
