package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tbsouza/academic-api/internal/middleware"
	"github.com/tbsouza/academic-api/internal/models"
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

// principalFromContext resolves the authenticated caller. Routes behind the
// JWT middleware always carry claims; the zero principal fails every
// service-level check.
func principalFromContext(c *gin.Context) models.Principal {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Principal{}
	}
	return claims.Principal()
}
