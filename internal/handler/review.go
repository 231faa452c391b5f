package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindguard/internal/reviewstore"
)

type ReviewHandler interface {
	ListPendingSamples(c *gin.Context)
	MarkSampleReviewed(c *gin.Context)
}

type reviewHandler struct {
	store  *reviewstore.Store
	logger *zap.Logger
}

func NewReviewHandler(store *reviewstore.Store, logger *zap.Logger) ReviewHandler {
	return &reviewHandler{store: store, logger: logger}
}

func (h *reviewHandler) ListPendingSamples(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	samples, err := h.store.ListPending(limit)
	if err != nil {
		h.logger.Error("Failed to list review samples", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list samples"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"samples": samples, "count": len(samples)})
}

func (h *reviewHandler) MarkSampleReviewed(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}

	if err := h.store.MarkReviewed(id); err != nil {
		h.logger.Error("Failed to mark sample reviewed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark sample reviewed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "reviewed": true})
}
