package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/services"
)

// SyncHandler handles sync run endpoints
type SyncHandler struct {
	service *services.Service
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(service *services.Service) *SyncHandler {
	return &SyncHandler{service: service}
}

// CreateRunRequest optionally restricts a run to a single target
type CreateRunRequest struct {
	Target string `json:"target"`
}

// CreateRun triggers a new sync run in the background
func (h *SyncHandler) CreateRun(c *gin.Context) {
	var req CreateRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var only models.TargetType
	if req.Target != "" {
		only = models.TargetType(strings.ToUpper(req.Target))
		if !only.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown target: " + req.Target})
			return
		}
	}

	run, err := h.service.StartRun(models.TriggerManual, only)
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": run})
}

// ListRuns returns all retained sync runs, newest first
func (h *SyncHandler) ListRuns(c *gin.Context) {
	runs := h.service.ListRuns()
	c.JSON(http.StatusOK, gin.H{
		"data":  runs,
		"total": len(runs),
	})
}

// GetRun returns a single sync run
func (h *SyncHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	run, ok := h.service.GetRun(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": run})
}

// ListTargets returns the configured sync targets
func (h *SyncHandler) ListTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Targets()})
}
