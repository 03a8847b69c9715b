package handlers

import (
	"github.com/gin-gonic/gin"

	"pulse/api/middleware"
	"pulse/api/metrics"
	"pulse/api/utils"
)

const TrackPath = "/api/track"

type Router struct {
	Auth      *AuthHandlers
	Track     *TrackHandlers
	Analytics *AnalyticsHandlers
	Sites     *SiteHandlers
	Metrics   *MetricHandlers
	Health    *HealthHandlers

	JWT            *utils.JWTManager
	FrontendOrigin string
	TrackLimiter   *middleware.IPRateLimiter
	TrustedProxies []string
}

// Engine builds the gin engine with every route registered.
func (rt *Router) Engine() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if err := r.SetTrustedProxies(rt.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(middleware.CORS(rt.FrontendOrigin, TrackPath))

	r.GET("/health", rt.Health.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/track", middleware.TrackRateLimit(rt.TrackLimiter), rt.Track.Track)

		api.GET("/analytics", rt.Analytics.GetAnalytics)
		api.GET("/export", rt.Analytics.Export)

		api.POST("/signup", rt.Auth.Signup)
		api.POST("/login", rt.Auth.Login)
		api.POST("/logout", rt.Auth.Logout)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(rt.JWT))
		{
			protected.GET("/sites", rt.Sites.ListSites)
			protected.POST("/sites", rt.Sites.CreateSite)
			protected.DELETE("/sites/:id", rt.Sites.DeleteSite)

			protected.GET("/metrics", rt.Metrics.ListMetrics)
			protected.POST("/metrics", rt.Metrics.CreateMetric)
			protected.DELETE("/metrics/:id", rt.Metrics.DeleteMetric)
			protected.POST("/metrics/values", rt.Metrics.PutMetricValue)
			protected.DELETE("/metrics/values/:id", rt.Metrics.DeleteMetricValue)
		}
	}

	return r, nil
}
