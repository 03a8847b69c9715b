package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pulse/api/ingest"
	"pulse/api/metrics"
	"pulse/api/models"
)

type TrackHandlers struct {
	ingest *ingest.Service
}

func NewTrackHandlers(svc *ingest.Service) *TrackHandlers {
	return &TrackHandlers{ingest: svc}
}

// Track accepts one beacon from the embedded snippet.
func (h *TrackHandlers) Track(c *gin.Context) {
	var beacon models.Beacon
	if err := c.ShouldBindJSON(&beacon); err != nil {
		metrics.RecordBeaconRejected("validation")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.ingest.Ingest(ctx, beacon, c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err, "Internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
