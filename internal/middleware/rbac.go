package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/models"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
	"github.com/campuspress/campus-blog-api/pkg/response"
)

// RequireRoles blocks requests whose authenticated profile role is not in the
// allowed set. Fine-grained ownership checks stay in the services; this only
// gates whole route groups.
func RequireRoles(roles ...models.ProfileRole) gin.HandlerFunc {
	allowed := make(map[models.ProfileRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
