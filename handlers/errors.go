package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pulse/api/models"
)

// respondError maps the typed errors in models to a status and JSON body.
// Anything unrecognized is logged and reported as a 500 with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var (
		authErr       *models.AuthError
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
	)

	switch {
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Message})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Message})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
