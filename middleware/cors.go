package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the dashboard origin to call the API with cookies.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// TrackingCORS is the policy for the beacon endpoint, which is called by
// snippets embedded on arbitrary origins and never carries credentials.
func TrackingCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          24 * time.Hour,
	})
}

// CORS picks the tracking policy for trackPath and the dashboard policy for
// everything else. It is installed on the engine so preflights for
// unregistered OPTIONS routes are answered too.
func CORS(dashboardOrigin, trackPath string) gin.HandlerFunc {
	tracking := TrackingCORS()
	dashboard := CORSMiddleware(dashboardOrigin)
	return func(c *gin.Context) {
		if c.Request.URL.Path == trackPath {
			tracking(c)
			return
		}
		dashboard(c)
	}
}
