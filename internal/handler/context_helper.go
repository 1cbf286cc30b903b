package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/middleware"
	"github.com/campuspress/campus-blog-api/internal/models"
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

// actorFromContext returns the policy actor, or nil for anonymous callers.
func actorFromContext(c *gin.Context) *models.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	actor := claims.Actor()
	return &actor
}

func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func paginationMeta(page, pageSize, total int) *models.Pagination {
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
