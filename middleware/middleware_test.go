package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse/api/models"
	"pulse/api/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT(t *testing.T) *utils.JWTManager {
	t.Helper()
	m, err := utils.NewJWTManager("test-secret", time.Hour)
	require.NoError(t, err)
	return m
}

func authRouter(jwt *utils.JWTManager) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetInt(ContextUserID), "email": c.GetString(ContextEmail)})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	jwt := newJWT(t)
	token, err := jwt.GenerateJWT(&models.User{ID: 7, Email: "owner@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		setup      func(req *http.Request)
		wantStatus int
	}{
		{"no token", func(req *http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
		}, http.StatusOK},
		{"bearer header", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}, http.StatusOK},
		{"garbage token", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer not-a-jwt")
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			authRouter(jwt).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"email":"owner@example.com"}`, w.Body.String())
			}
		})
	}
}

func corsRouter() *gin.Engine {
	r := gin.New()
	r.Use(CORS("http://localhost:3000", "/api/track"))
	r.POST("/api/track", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })
	r.GET("/api/analytics", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS_TrackPreflightAllowsAnyOrigin(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/track", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	corsRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestCORS_TrackPostFromAnyOrigin(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track", nil)
	req.Header.Set("Origin", "https://blog.example")
	corsRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DashboardUsesConfiguredOrigin(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/analytics", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	corsRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestTrackRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(60, 2)
	r := gin.New()
	r.POST("/api/track", TrackRateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/track", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/track", nil)
	req.RemoteAddr = "198.51.100.1:5555"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, limiter.Len())

	limiter.Cleanup(-time.Second)
	assert.Zero(t, limiter.Len())
}

func TestTrackRateLimit_Disabled(t *testing.T) {
	assert.Nil(t, NewIPRateLimiter(0, 10))

	r := gin.New()
	r.POST("/api/track", TrackRateLimit(nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/track", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
