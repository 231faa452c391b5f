package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindguard/internal/models"
	"mindguard/internal/repository"
)

type IncidentHandler interface {
	GetAllIncidents(c *gin.Context)
	GetIncidentByID(c *gin.Context)
	UpdateIncidentStatus(c *gin.Context)
	GetRecentAssessments(c *gin.Context)
}

type incidentHandler struct {
	incidentRepo   repository.IncidentRepository
	assessmentRepo repository.AssessmentRepository
	logger         *zap.Logger
}

func NewIncidentHandler(incidentRepo repository.IncidentRepository, assessmentRepo repository.AssessmentRepository, logger *zap.Logger) IncidentHandler {
	return &incidentHandler{
		incidentRepo:   incidentRepo,
		assessmentRepo: assessmentRepo,
		logger:         logger,
	}
}

// GetAllIncidents handles GET /api/incidents with optional ?status= or
// ?tier= filters.
func (h *incidentHandler) GetAllIncidents(c *gin.Context) {
	var (
		incidents []*models.Incident
		err       error
	)

	switch {
	case c.Query("status") != "":
		incidents, err = h.incidentRepo.GetIncidentsByStatus(c.Query("status"))
	case c.Query("tier") != "":
		incidents, err = h.incidentRepo.GetIncidentsByTier(c.Query("tier"))
	default:
		incidents, err = h.incidentRepo.GetAllIncidents()
	}
	if err != nil {
		h.logger.Error("Failed to list incidents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list incidents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"incidents": incidents, "count": len(incidents)})
}

func (h *incidentHandler) GetIncidentByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	incident, err := h.incidentRepo.GetIncidentByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		h.logger.Error("Failed to get incident", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get incident"})
		return
	}

	c.JSON(http.StatusOK, incident)
}

type UpdateIncidentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateIncidentStatus handles PUT /api/incidents/:id/status, moving an
// incident through open -> acknowledged -> resolved.
func (h *incidentHandler) UpdateIncidentStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	var req UpdateIncidentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.incidentRepo.UpdateIncidentStatus(id, req.Status); err != nil {
		if errors.Is(err, repository.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repository.ErrIncidentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		h.logger.Error("Failed to update incident status", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update incident"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// GetRecentAssessments handles GET /api/assessments: the anonymized
// score log, newest first.
func (h *incidentHandler) GetRecentAssessments(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.assessmentRepo.GetRecentAssessments(limit)
	if err != nil {
		h.logger.Error("Failed to list assessments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assessments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessments": records, "count": len(records)})
}
