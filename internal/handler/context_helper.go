package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edubridge-ng/portal-api/internal/middleware"
	"github.com/edubridge-ng/portal-api/internal/models"
	appErrors "github.com/edubridge-ng/portal-api/pkg/errors"
	"github.com/edubridge-ng/portal-api/pkg/response"
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

// bindJSON decodes the request body into dst and writes the validation
// error envelope on failure. Returns false when the handler should stop.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return false
	}
	return true
}

// requestMeta captures caller address details for audit trails.
func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
