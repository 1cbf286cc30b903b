package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/service"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
	"github.com/campuspress/campus-blog-api/pkg/response"
)

// ProfileHandler wires the admin profile management endpoints.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new handler.
func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// List godoc
// @Summary List profiles
// @Description Admin listing of profiles with role and search filters
// @Tags Admin
// @Produce json
// @Param role query string false "admin, student or viewer"
// @Param search query string false "Match username or full name"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.ProfileFilter{Search: c.Query("search")}
	if role := c.Query("role"); role != "" {
		r := models.ProfileRole(role)
		filter.Role = &r
	}
	filter.Page, filter.PageSize = parsePagination(c)

	profiles, total, err := h.service.ListProfiles(c.Request.Context(), *actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profiles, paginationMeta(filter.Page, filter.PageSize, total))
}

// ChangeRole godoc
// @Summary Change a profile's role
// @Description Admin only. Reassigns the target profile's role and records an audit entry.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Profile id"
// @Param payload body models.ChangeRoleRequest true "New role"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/profiles/{id}/role [patch]
func (h *ProfileHandler) ChangeRole(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}

	profile, err := h.service.ChangeRole(c.Request.Context(), *actor, c.Param("id"), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, profile, nil)
}
