package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pulse/api/middleware"
	"pulse/api/models"
	"pulse/api/store"
)

// MetricHandlers serve the caller's manually tracked metrics. limit caps how
// many metrics one account may own; zero disables the cap.
type MetricHandlers struct {
	metrics store.MetricStore
	limit   int
}

func NewMetricHandlers(metrics store.MetricStore, limit int) *MetricHandlers {
	return &MetricHandlers{metrics: metrics, limit: limit}
}

// ListMetrics returns every metric with its values and latest growth.
func (h *MetricHandlers) ListMetrics(c *gin.Context) {
	userID := c.GetInt(middleware.ContextUserID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	metrics, err := h.metrics.ListMetrics(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}
	values, err := h.metrics.ListMetricValues(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to fetch metrics")
		return
	}

	byMetric := make(map[string][]models.MetricValue, len(metrics))
	for _, v := range values {
		byMetric[v.MetricID] = append(byMetric[v.MetricID], v)
	}
	out := make([]models.MetricSummary, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, models.SummarizeMetric(m, byMetric[m.ID]))
	}

	c.JSON(http.StatusOK, gin.H{"metrics": out, "limit": h.limit})
}

func (h *MetricHandlers) CreateMetric(c *gin.Context) {
	var req models.CreateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	metric := &models.Metric{
		ID:     uuid.New().String(),
		UserID: c.GetInt(middleware.ContextUserID),
		Name:   strings.TrimSpace(req.Name),
		Type:   req.Type,
		Color:  req.Color,
	}
	if metric.Type == "" {
		metric.Type = models.MetricTypeNumber
	}
	if metric.Color == "" {
		metric.Color = models.DefaultMetricColor
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.metrics.CreateMetric(ctx, metric, h.limit); err != nil {
		if errors.Is(err, models.ErrMetricLimitReached) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Metric limit reached", "limit": h.limit})
			return
		}
		respondError(c, err, "Failed to create metric")
		return
	}

	log.Info().Str("metric_id", metric.ID).Int("user_id", metric.UserID).Msg("metric created")
	c.JSON(http.StatusCreated, metric)
}

func (h *MetricHandlers) DeleteMetric(c *gin.Context) {
	metricID := c.Param("id")
	userID := c.GetInt(middleware.ContextUserID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.metrics.DeleteMetric(ctx, metricID, userID); err != nil {
		respondError(c, err, "Failed to delete metric")
		return
	}

	log.Info().Str("metric_id", metricID).Int("user_id", userID).Msg("metric deleted")
	c.Status(http.StatusNoContent)
}

// PutMetricValue records the value of a metric for a day, replacing any value
// already recorded for that day.
func (h *MetricHandlers) PutMetricValue(c *gin.Context) {
	var req models.MetricValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}
	value, err := req.Value.Float64()
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be a finite number"})
		return
	}

	mv := &models.MetricValue{
		ID:       uuid.New().String(),
		MetricID: req.MetricID,
		UserID:   c.GetInt(middleware.ContextUserID),
		Value:    value,
		Date:     req.Date,
		Notes:    strings.TrimSpace(req.Notes),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.metrics.UpsertMetricValue(ctx, mv); err != nil {
		respondError(c, err, "Failed to save metric value")
		return
	}

	c.JSON(http.StatusOK, mv)
}

func (h *MetricHandlers) DeleteMetricValue(c *gin.Context) {
	valueID := c.Param("id")
	userID := c.GetInt(middleware.ContextUserID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.metrics.DeleteMetricValue(ctx, valueID, userID); err != nil {
		respondError(c, err, "Failed to delete metric value")
		return
	}

	c.Status(http.StatusNoContent)
}
