package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
	"github.com/clanpulse/clanpulse-api/pkg/response"
)

// RequireRoles blocks requests whose claims carry none of the listed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
