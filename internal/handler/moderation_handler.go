package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/service"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
	"github.com/campuspress/campus-blog-api/pkg/response"
)

// ModerationHandler wires the admin moderation endpoints.
type ModerationHandler struct {
	service *service.ModerationService
}

// NewModerationHandler creates a new handler.
func NewModerationHandler(svc *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: svc}
}

// ListAllPosts godoc
// @Summary List all posts for moderation
// @Description Admin view over posts of every author and status
// @Tags Admin
// @Produce json
// @Param search query string false "Free-text search"
// @Param status query string false "draft or published"
// @Param project_id query string false "Filter by project"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/posts [get]
func (h *ModerationHandler) ListAllPosts(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := postFilterFromQuery(c)
	result, err := h.service.ListAllPosts(c.Request.Context(), *actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items, paginationMeta(filter.Page, filter.PageSize, result.Total))
}

// RecentComments godoc
// @Summary List recent comments
// @Description Latest comments across all posts for moderation review
// @Tags Admin
// @Produce json
// @Param limit query int false "Number of comments, max 100"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/comments/recent [get]
func (h *ModerationHandler) RecentComments(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	comments, err := h.service.RecentComments(c.Request.Context(), *actor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comments, nil)
}

// Dashboard godoc
// @Summary Moderation dashboard counts
// @Description Aggregate counts of posts, profiles, comments and projects
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *ModerationHandler) Dashboard(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	counts, err := h.service.Dashboard(c.Request.Context(), *actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, counts, nil)
}
