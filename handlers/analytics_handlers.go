package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pulse/api/analytics"
	"pulse/api/metrics"
	"pulse/api/models"
	"pulse/api/store"
	"pulse/api/utils"
)

type AnalyticsHandlers struct {
	sites   store.SiteStore
	engine  *analytics.Engine
	samples *analytics.SampleGenerator
	cache   *store.ReportCache
	clock   utils.Clock
}

// NewAnalyticsHandlers wires the report and export endpoints. cache may be nil.
func NewAnalyticsHandlers(sites store.SiteStore, engine *analytics.Engine, samples *analytics.SampleGenerator, cache *store.ReportCache, clock utils.Clock) *AnalyticsHandlers {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &AnalyticsHandlers{
		sites:   sites,
		engine:  engine,
		samples: samples,
		cache:   cache,
		clock:   clock,
	}
}

// GetAnalytics never surfaces a datastore failure to the dashboard: it logs,
// counts the fallback and answers 200 with sample data tagged "fallback".
func (h *AnalyticsHandlers) GetAnalytics(c *gin.Context) {
	siteID := c.Query("siteId")
	r := utils.ResolveRange(c.DefaultQuery("range", utils.DefaultRange), h.clock.Now())

	if siteID == "" {
		c.JSON(http.StatusOK, h.samples.Report(models.SourceDemo))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	report, err := h.liveReport(ctx, siteID, r)
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
			return
		}
		log.Error().Err(err).Str("site_id", siteID).Str("range", r.Token).Msg("analytics aggregation failed, serving sample data")
		metrics.RecordReportFallback("dependency")
		c.JSON(http.StatusOK, h.samples.Report(models.SourceFallback))
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *AnalyticsHandlers) liveReport(ctx context.Context, siteID string, r models.Range) (*models.AnalyticsReport, error) {
	if _, err := h.sites.GetSiteByID(ctx, siteID); err != nil {
		return nil, err
	}

	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, siteID, r.Token)
		if err != nil {
			log.Warn().Err(err).Str("site_id", siteID).Msg("report cache read failed")
		}
		metrics.RecordReportCache(ok)
		if ok {
			return cached, nil
		}
	}

	report, err := h.engine.Aggregate(ctx, siteID, r)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, siteID, r.Token, report); err != nil {
			log.Warn().Err(err).Str("site_id", siteID).Msg("report cache write failed")
		}
	}
	return report, nil
}

// Export streams raw rows as an attachment. Unlike GetAnalytics it has no
// sample fallback for failures: a broken export must look broken.
func (h *AnalyticsHandlers) Export(c *gin.Context) {
	siteID := c.Query("siteId")
	format := analytics.NormalizeFormat(c.DefaultQuery("format", analytics.FormatCSV))
	r := utils.ResolveRange(c.DefaultQuery("range", utils.DefaultRange), h.clock.Now())

	var records models.ExportRecords
	if siteID == "" {
		records = h.samples.ExportRecords()
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		if _, err := h.sites.GetSiteByID(ctx, siteID); err != nil {
			var nf *models.NotFoundError
			if errors.As(err, &nf) {
				metrics.RecordExport(format, "not_found")
				c.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
				return
			}
			h.exportFailed(c, format, siteID, err)
			return
		}

		var err error
		records, err = h.engine.Records(ctx, siteID, r)
		if err != nil {
			h.exportFailed(c, format, siteID, err)
			return
		}
	}

	body, contentType, err := analytics.FormatExport(records, format)
	if err != nil {
		h.exportFailed(c, format, siteID, err)
		return
	}

	metrics.RecordExport(format, "ok")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, analytics.ExportFilename(r.Token, format)))
	c.Data(http.StatusOK, contentType, body)
}

func (h *AnalyticsHandlers) exportFailed(c *gin.Context, format, siteID string, err error) {
	log.Error().Err(err).Str("site_id", siteID).Str("format", format).Msg("export failed")
	metrics.RecordExport(format, "error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
}
