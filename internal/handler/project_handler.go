package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuspress/campus-blog-api/internal/models"
	"github.com/campuspress/campus-blog-api/internal/service"
	appErrors "github.com/campuspress/campus-blog-api/pkg/errors"
	"github.com/campuspress/campus-blog-api/pkg/response"
)

// ProjectHandler wires HTTP endpoints to the project service.
type ProjectHandler struct {
	service *service.ProjectService
	gallery *service.GalleryService
}

// NewProjectHandler creates a new handler.
func NewProjectHandler(svc *service.ProjectService, gallery *service.GalleryService) *ProjectHandler {
	return &ProjectHandler{service: svc, gallery: gallery}
}

// List godoc
// @Summary List projects
// @Description List projects with optional status and year filters
// @Tags Projects
// @Produce json
// @Param status query string false "open or closed"
// @Param year query int false "Project year"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	var filter models.ProjectFilter
	if status := c.Query("status"); status != "" {
		s := models.ProjectStatus(status)
		filter.Status = &s
	}
	if yearStr := c.Query("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filter.Year = &year
		}
	}
	filter.Page, filter.PageSize = parsePagination(c)

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items, paginationMeta(filter.Page, filter.PageSize, result.Total))
}

// Get godoc
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Param id path string true "Project id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, project, nil)
}

// ListGallery godoc
// @Summary List a project's gallery
// @Tags Projects
// @Produce json
// @Param id path string true "Project id"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/gallery [get]
func (h *ProjectHandler) ListGallery(c *gin.Context) {
	projectID := c.Param("id")
	filter := models.GalleryFilter{ProjectID: &projectID}
	filter.Page, filter.PageSize = parsePagination(c)

	result, err := h.gallery.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items, paginationMeta(filter.Page, filter.PageSize, result.Total))
}

// Create godoc
// @Summary Create a project
// @Description Admin only
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body models.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project payload"))
		return
	}

	project, err := h.service.Create(c.Request.Context(), *actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// Update godoc
// @Summary Update a project
// @Description Admin only
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project id"
// @Param payload body models.UpdateProjectRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [patch]
func (h *ProjectHandler) Update(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project patch"))
		return
	}

	project, err := h.service.Update(c.Request.Context(), *actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, project, nil)
}

// Delete godoc
// @Summary Delete a project
// @Description Admin only. Refused while posts or gallery images still reference the project.
// @Tags Projects
// @Produce json
// @Param id path string true "Project id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), *actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
