package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pulse/api/middleware"
	"pulse/api/models"
	"pulse/api/store"
	"pulse/api/utils"
)

type SiteHandlers struct {
	sites  store.SiteStore
	events store.EventStore
	cache  *store.ReportCache
}

func NewSiteHandlers(sites store.SiteStore, events store.EventStore, cache *store.ReportCache) *SiteHandlers {
	return &SiteHandlers{sites: sites, events: events, cache: cache}
}

// ListSites returns the caller's sites with their stored pageview and event counts.
func (h *SiteHandlers) ListSites(c *gin.Context) {
	userID := c.GetInt(middleware.ContextUserID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sites, err := h.sites.ListSitesByUser(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to list sites")
		return
	}

	ids := make([]string, 0, len(sites))
	for _, s := range sites {
		ids = append(ids, s.ID)
	}
	counts := map[string]models.SiteCounts{}
	if len(ids) > 0 {
		counts, err = h.events.CountForSites(ctx, ids)
		if err != nil {
			// Counts are decoration; the listing itself still works.
			log.Warn().Err(err).Int("user_id", userID).Msg("failed to count site rows")
			counts = map[string]models.SiteCounts{}
		}
	}

	out := make([]models.SiteSummary, 0, len(sites))
	for _, s := range sites {
		out = append(out, models.SiteSummary{Site: s, Counts: counts[s.ID]})
	}
	c.JSON(http.StatusOK, out)
}

func (h *SiteHandlers) CreateSite(c *gin.Context) {
	var req models.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		respondError(c, err, "Failed to create site")
		return
	}

	site := &models.Site{
		ID:     uuid.New().String(),
		UserID: c.GetInt(middleware.ContextUserID),
		Name:   strings.TrimSpace(req.Name),
		Domain: strings.TrimSpace(req.Domain),
		APIKey: apiKey,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.sites.CreateSite(ctx, site); err != nil {
		respondError(c, err, "Failed to create site")
		return
	}

	log.Info().Str("site_id", site.ID).Int("user_id", site.UserID).Msg("site created")
	c.JSON(http.StatusCreated, site)
}

func (h *SiteHandlers) DeleteSite(c *gin.Context) {
	siteID := c.Param("id")
	userID := c.GetInt(middleware.ContextUserID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.sites.DeleteSite(ctx, siteID, userID); err != nil {
		respondError(c, err, "Failed to delete site")
		return
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, siteID); err != nil {
			log.Warn().Err(err).Str("site_id", siteID).Msg("failed to invalidate cached reports")
		}
	}

	log.Info().Str("site_id", siteID).Int("user_id", userID).Msg("site deleted")
	c.Status(http.StatusNoContent)
}
