package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pchs-registration-api/internal/middleware"
	"github.com/noah-isme/pchs-registration-api/internal/models"
	appErrors "github.com/noah-isme/pchs-registration-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func studentIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Invalid student id.")
	}
	return id, nil
}
