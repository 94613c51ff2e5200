package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	engine EngineController
}

func NewStatusHandler(engine EngineController) *StatusHandler {
	return &StatusHandler{engine: engine}
}

func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GetStatus())
}

func (h *StatusHandler) StartEngine(c *gin.Context) {
	h.engine.Start()
	c.JSON(http.StatusOK, gin.H{"monitoring_active": true})
}

func (h *StatusHandler) StopEngine(c *gin.Context) {
	h.engine.Stop()
	c.JSON(http.StatusOK, gin.H{"monitoring_active": false})
}
