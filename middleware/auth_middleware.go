package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pulse/api/utils"
)

const (
	AuthCookieName = "jwt_token"
	ContextUserID  = "user_id"
	ContextEmail   = "user_email"
)

// AuthRequired accepts a JWT from the jwt_token cookie or a Bearer header.
func AuthRequired(jwt *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(AuthCookieName)
		if err != nil || tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			if tokenString == "" {
				log.Debug().Str("path", c.Request.URL.Path).Msg("no JWT token in cookie or header")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
		}

		claims, err := jwt.ValidateJWT(tokenString)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("invalid JWT token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}
